package handler

const (
	errInternalServer       = "Internal server error"
	errJobNotFound          = "Job not found"
	errScheduleNotFound     = "Schedule not found"
	errScheduleNameConflict = "Schedule with this name already exists"
	errScheduleSpecInvalid  = "Schedule spec is invalid for its kind"
	errScheduleAlreadyPaused = "Schedule is already paused"
	errScheduleNotPaused    = "Schedule is not paused"
	errTemplateNotFound     = "Template not found"
	errVariantNotFound      = "Variant not found"
	errNoActiveVariants     = "Template has no active variants"
	errContentTooLong       = "Content exceeds platform character limit"
	errInvalidCredentials   = "Invalid operator credentials"
	errInvalidCursor        = "Invalid pagination cursor"
	errPostNotFound         = "Post not found"
	errPostDeleted          = "Post has been deleted"
	errScheduleContentSource = "Schedule must set exactly one of template_id or post_id"
)
