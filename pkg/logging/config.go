package logging

const (
	BaseDataDir = "data"
	LogsDir     = "logs"
	TimeFormat  = "2006-01-02 15:04:05"
)

// ProcessName names the binary a logger belongs to. It is also the name of
// the log sub-directory.
type ProcessName string

const (
	OperatorProcess ProcessName = "operator"
	CtlProcess      ProcessName = "irsctl"
	TestProcess     ProcessName = "test"
)

type LoggerConfig struct {
	ProcessName   ProcessName
	IsDevelopment bool
	// LogDir overrides BaseDataDir when set.
	LogDir string
	// rotation, in megabytes and days
	MaxSizeMB  int
	MaxAgeDays int
	MaxBackups int
}

func NewDefaultConfig(processName ProcessName) LoggerConfig {
	return LoggerConfig{
		ProcessName:   processName,
		IsDevelopment: true,
		LogDir:        BaseDataDir,
		MaxSizeMB:     100,
		MaxAgeDays:    28,
		MaxBackups:    5,
	}
}
