package dialog

const (
	btnBack        = "⬅ Back to options"
	btnConfirm     = "✅ Confirm"
	btnRestart     = "🔄 Restart"
	btnDone        = "Done"
	btnSkip        = "Skip"
	btnYes         = "Yes"
	btnNo          = "No"
	btnCancel      = "Cancel"
	btnOptions     = "Options"
	btnFreeAnswer  = "Free answer"
	btnSubOptions  = "Sub-options"
	btnFreeText    = "Free text"
	btnEditText    = "Edit text"
	btnEditOptions = "Edit options"
	btnAddOption   = "Add option"
	btnRemove      = "Remove option"
	btnAddNested   = "Add nested options"
	btnConvertFree = "Convert to free answer"
	btnNext        = "Next ▶"
	btnPrev        = "◀ Prev"
	btnClose       = "Close"
	btnPublish     = "Publish"
	btnSendNow     = "Send now"
	btnLater       = "Later"
	btnSend        = "Send"
	btnDelete      = "Delete"
	btnWipe        = "Yes, delete everything"
)

const (
	msgFailed        = "Could not complete the operation. Please try again later."
	msgNotAdmin      = "This command is available to administrators only."
	msgUnknown       = "Unknown command."
	msgIdle          = "Send /start to begin the survey."
	msgCancelled     = "Cancelled."
	msgStale         = "The question list has changed in the meantime. Please start again."
	msgChooseNumber  = "Please send a number from the list."
	msgChooseButton  = "Please use the buttons below."
	msgAlreadyTaken  = "You have already completed the survey. Thank you!"
	msgNoQuestions   = "The survey is not available yet."
	msgSurveyUpdated = "The survey was updated."
)

// column lays buttons out one per row.
func column(buttons ...string) [][]string {
	rows := make([][]string, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []string{b})
	}
	return rows
}
