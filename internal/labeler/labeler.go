package labeler

type ILabeler interface {
	RunLabeler(opts *LabelerOptions) error
}
