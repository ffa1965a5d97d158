package validation

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/params"
)

// Pools report rates as ray values (1e27 fixed point, one unit of percent
// per 1e27). Everything inside the operator works in basis points.
var (
	Ray              = new(big.Int).Exp(big.NewInt(10), big.NewInt(27), nil)
	RayPerBasisPoint = new(big.Int).Exp(big.NewInt(10), big.NewInt(25), nil)
)

// RayToBasisPoints truncates towards zero.
func RayToBasisPoints(ray *big.Int) *big.Int {
	if ray == nil {
		return new(big.Int)
	}
	return new(big.Int).Quo(ray, RayPerBasisPoint)
}

func BasisPointsToRay(bps *big.Int) *big.Int {
	if bps == nil {
		return new(big.Int)
	}
	return new(big.Int).Mul(bps, RayPerBasisPoint)
}

// FormatBasisPoints renders 600 as "6.00%".
func FormatBasisPoints(bps *big.Int) string {
	if bps == nil {
		return "0.00%"
	}
	sign := ""
	abs := new(big.Int).Set(bps)
	if abs.Sign() < 0 {
		sign = "-"
		abs.Neg(abs)
	}
	whole, frac := new(big.Int).QuoRem(abs, big.NewInt(100), new(big.Int))
	return fmt.Sprintf("%s%s.%02d%%", sign, whole.String(), frac.Int64())
}

// FormatEther renders a wei amount in ether without trailing zeros.
func FormatEther(wei *big.Int) string {
	if wei == nil {
		return "0"
	}
	sign := ""
	abs := new(big.Int).Set(wei)
	if abs.Sign() < 0 {
		sign = "-"
		abs.Neg(abs)
	}
	whole, frac := new(big.Int).QuoRem(abs, big.NewInt(params.Ether), new(big.Int))
	if frac.Sign() == 0 {
		return sign + whole.String()
	}
	decimals := strings.TrimRight(fmt.Sprintf("%018d", frac), "0")
	return sign + whole.String() + "." + decimals
}

// ParseEther parses a non-negative decimal ether amount such as "1.5" into
// wei.
func ParseEther(s string) (*big.Int, error) {
	s = strings.TrimSpace(s)
	whole, frac, _ := strings.Cut(s, ".")
	if (whole == "" && frac == "") || strings.ContainsAny(s, "+-") || len(frac) > 18 {
		return nil, fmt.Errorf("invalid ether amount %q", s)
	}
	wei, ok := new(big.Int).SetString(whole+frac+strings.Repeat("0", 18-len(frac)), 10)
	if !ok {
		return nil, fmt.Errorf("invalid ether amount %q", s)
	}
	return wei, nil
}

const secondsPerDay = 24 * 60 * 60

// FormatDays renders a duration in seconds as days.
func FormatDays(seconds *big.Int) string {
	if seconds == nil {
		return "0 days"
	}
	days, rem := new(big.Int).QuoRem(seconds, big.NewInt(secondsPerDay), new(big.Int))
	if rem.Sign() == 0 {
		return days.String() + " days"
	}
	f, _ := new(big.Float).Quo(new(big.Float).SetInt(seconds), big.NewFloat(secondsPerDay)).Float64()
	return fmt.Sprintf("%.2f days", f)
}
