package domain

// Genre classifies films; film documents carry genre names, the genres index
// holds the full records.
type Genre struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description *string `json:"description"`
}
