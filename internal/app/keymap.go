package app

// Key binding constants used in handleKey.
const (
	KeyQuit         = "q"
	KeyQuitUpper    = "Q"
	KeyCtrlC        = "ctrl+c"
	KeyUpdate       = "u"
	KeyFullRegen    = "f"
	KeySaveText     = "s"
	KeyTogglePause  = "p"
	KeyCommandInput = "c"
	KeyTab          = "tab"
	KeyUp           = "up"
	KeyDown         = "down"
	KeyEnter        = "enter"
	KeyEscape       = "esc"
)
