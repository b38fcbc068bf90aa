package job

// MessageLevel is the severity of an execution message.
type MessageLevel string

const (
	LevelError   MessageLevel = "ERROR"
	LevelWarning MessageLevel = "WARNING"
	LevelInfo    MessageLevel = "INFO"
	LevelDebug   MessageLevel = "DEBUG"
	LevelTrace   MessageLevel = "TRACE"
)

// Message is one entry of a job's execution log. Sequence defines the total
// order; the job keeps its message list sorted by it.
type Message struct {
	Sequence  int
	Level     MessageLevel
	Text      string
	Line      int
	Column    int
	TimeStamp string
	File      string
}
