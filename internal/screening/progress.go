package screening

// Stages reported through ProgressCallback
const (
	StageReceived  = "received"
	StageParsed    = "parsed"
	StageScored    = "scored"
	StageSaved     = "saved"
	StageCompleted = "completed"
)

// ProgressEvent represents a progress update while screening a resume
type ProgressEvent struct {
	Stage    string `json:"stage"`
	Filename string `json:"filename"`
	Message  string `json:"message"`
	Content  any    `json:"content,omitempty"`
}

// ProgressCallback is called when screening progress occurs.
// Batch runs call it from several goroutines at once.
type ProgressCallback func(event ProgressEvent)

// emitProgress calls the progress callback if configured
func (s *Service) emitProgress(stage, filename, message string, content any) {
	if s.opts.OnProgress != nil {
		s.opts.OnProgress(ProgressEvent{
			Stage:    stage,
			Filename: filename,
			Message:  message,
			Content:  content,
		})
	}
}
