package dragon

const (
	// Microseconds
	CoincWindowDefault uint64 = 10
	QueueTimeDefault   uint64 = 4_000_000
)

type Configuration struct {
	Verbosity     int    `json:"verbosity"`
	FileIn        string `json:"file_in"`
	MaxEvents     int    `json:"max_events"`
	Skip          int    `json:"skip"`
	SinglesMode   bool   `json:"singles_mode"`
	CoincWindow   uint64 `json:"coinc_window"`
	QueueTime     uint64 `json:"queue_time"`
	QueueMaxSize  int    `json:"queue_max_size"`
	AutoFlush     bool   `json:"auto_flush"`
	NoDB          bool   `json:"no_db"`
	DBDriver      string `json:"db_driver"`
	Host          string `json:"host"`
	User          string `json:"user"`
	Passwd        string `json:"pass"`
	DBName        string `json:"dbname"`
	DBFile        string `json:"db_file"`
	VariablesFile string `json:"variables_file"`
	RunNumber     int    `json:"run_number"`
}

func DefaultConfiguration() Configuration {
	return Configuration{
		Verbosity:   0,
		MaxEvents:   1e9,
		Skip:        0,
		SinglesMode: false,
		CoincWindow: CoincWindowDefault,
		QueueTime:   QueueTimeDefault,
		AutoFlush:   true,
		NoDB:        true,
		DBDriver:    "mysql",
		RunNumber:   -1,
	}
}

var configuration = DefaultConfiguration()

func GetConfiguration() Configuration {
	return configuration
}

func SetConfiguration(config Configuration) {
	configuration = config
}
