package domain

// Commands are the typed inputs of the mutating chat operations.
// Validate tags are enforced by the service layer before any
// persistence side effect happens.

type CreateGroupCommand struct {
	CreatorID string `validate:"required"`
	Name      string
	Members   []string
}

type SendTextCommand struct {
	FromID string     `validate:"required"`
	ToID   string     `validate:"required"`
	ToType TargetType `validate:"required,oneof=user group"`
	Text   string     `validate:"required"`
}

type SendAudioCommand struct {
	FromID string     `validate:"required"`
	ToID   string     `validate:"required"`
	ToType TargetType `validate:"required,oneof=user group"`
	Data   []byte     `validate:"required"`
	Mime   string
}

type HistoryQuery struct {
	ViewerID   string     `validate:"required"`
	TargetID   string     `validate:"required"`
	TargetType TargetType `validate:"required,oneof=user group"`
}

type CallCommand struct {
	FromID     string     `validate:"required"`
	TargetID   string     `validate:"required"`
	TargetType TargetType `validate:"required,oneof=user group"`
}
