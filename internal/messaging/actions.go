// Package messaging is the closed message contract shared by every execution
// context, plus the bus that carries it between them.
package messaging

// Action tags a message. The set is closed: anything else is rejected by Validate.
type Action string

const (
	ActionMountOverlay          Action = "MOUNT_OVERLAY"
	ActionTranslateImage        Action = "TRANSLATE_IMAGE"
	ActionShowResult            Action = "SHOW_RESULT"
	ActionMountTranslationModal Action = "MOUNT_TRANSLATION_MODAL"
	ActionThemeChanged          Action = "THEME_CHANGED"
	ActionStartOverlay          Action = "START_OVERLAY"
	ActionMountHistoryModal     Action = "MOUNT_HISTORY_MODAL"
	ActionShowToast             Action = "SHOW_TOAST"
	ActionDismissToast          Action = "DISMISS_TOAST"
	ActionPing                  Action = "PING"
	ActionPong                  Action = "PONG"
)

// Actions returns every action in declaration order.
func Actions() []Action {
	return []Action{
		ActionMountOverlay,
		ActionTranslateImage,
		ActionShowResult,
		ActionMountTranslationModal,
		ActionThemeChanged,
		ActionStartOverlay,
		ActionMountHistoryModal,
		ActionShowToast,
		ActionDismissToast,
		ActionPing,
		ActionPong,
	}
}

// ResponseKind is the declared reply type of an action.
type ResponseKind int

const (
	ResponseVoid ResponseKind = iota
	ResponsePong
	ResponseResult
)

func (k ResponseKind) String() string {
	switch k {
	case ResponsePong:
		return "PONG"
	case ResponseResult:
		return "Result"
	default:
		return "void"
	}
}

// ResponseOf returns what a receiver answers for the action.
func ResponseOf(a Action) ResponseKind {
	switch a {
	case ActionPing:
		return ResponsePong
	case ActionTranslateImage:
		return ResponseResult
	default:
		return ResponseVoid
	}
}

// Command is a keyboard shortcut delivered to the background context.
type Command string

const CommandStartExtension Command = "START_EXTENSION"
