package domain

type StatisticsRow struct {
	Question string `json:"question"`
	Option   string `json:"option"`
	Count    int64  `json:"count"`
}

// OptionStats groups composite answers under their parent option.
type OptionStats struct {
	Option   string
	Count    int64
	Children []StatisticsRow
}

type QuestionStats struct {
	Question string
	Total    int64
	Options  []OptionStats
}
