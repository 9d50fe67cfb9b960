package types

// AppConfig represents the application configuration loaded from config file
type AppConfig struct {
	Server          string `yaml:"server"`          // detection server base URL, e.g. http://localhost:5000
	Port            int    `yaml:"port"`            // local viewer port
	PollIntervalMs  int    `yaml:"pollIntervalMs"`  // task status poll interval
	MaxPollSeconds  int    `yaml:"maxPollSeconds"`  // give up on a task that never reaches a terminal state
	StatsIntervalS  int    `yaml:"statsIntervalS"`  // background /stats refresh interval
	NoticeSeconds   int    `yaml:"noticeSeconds"`   // how long a notice stays active
	RequestTimeoutS int    `yaml:"requestTimeoutS"` // per-request HTTP timeout
	HistoryPath     string `yaml:"historyPath,omitempty"`
	NotifySocket    string `yaml:"notifySocket,omitempty"`
	Ping            bool   `yaml:"ping"`
}

// Config holds runtime overrides from CLI flags
type Config struct {
	Log            string
	UseConfigPath  string
	UseServer      string
	UsePort        int
	UseHistoryPath string
	UseFile        string // one-shot mode: upload this file, wait, print result
	UseFilter      string // filter the printed detection list
	UseOutDir      string // save the download artifact and result image here
	UseDownload    bool
	Serve          bool // run the local viewer API instead of a one-shot upload
	ShowStats      bool
	ShowHistory    bool
	ClearCache     bool
	SkipNotify     bool // do not forward notices to the unix socket
	UsePing        bool
}
