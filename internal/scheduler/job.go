package scheduler

// Job represents maintenance work run after every cycle
type Job interface {
	Run() error
	Name() string
}
