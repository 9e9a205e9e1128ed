package model

type NoticeKind uint8

const (
	NoticeValidation NoticeKind = iota
	NoticeRejected
	NoticeNetwork
)

// Notice is a blocking, operator-facing notification.
type Notice struct {
	Kind    NoticeKind
	Message string
}

const (
	NetworkErrorMessage = "Network Error"
	MissingUserMessage  = "A receiving user is required to check out a device"
)
