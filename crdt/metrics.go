package crdt

type MetricsRecorder interface {
	ChangesEmitted(n int)
	ChangeAccepted()
	ChangeRejected()
	TombstoneDrop()
	Compression(inputs, outputs int)
}

type noopMetrics struct{}

func (noopMetrics) ChangesEmitted(int)   {}
func (noopMetrics) ChangeAccepted()      {}
func (noopMetrics) ChangeRejected()      {}
func (noopMetrics) TombstoneDrop()       {}
func (noopMetrics) Compression(int, int) {}
