package lesson

import (
	lessonUC "charcounter/internal/usecase/lesson"
)

// RowDTO is one row of the frequency table.
type RowDTO struct {
	Character string `json:"character"`
	Display   string `json:"display"`
	Code      int    `json:"code"`
	Count     int    `json:"count"`
}

// FrequenciesDTO is the body of GET /api/frequencies.
type FrequenciesDTO struct {
	Generation uint64   `json:"generation"`
	Source     string   `json:"source,omitempty"`
	TextLength int      `json:"text_length"`
	Rows       []RowDTO `json:"rows"`
}

func toRows(snap lessonUC.Snapshot) []RowDTO {
	rows := make([]RowDTO, 0, len(snap.Rows))
	for _, o := range snap.Rows {
		rows = append(rows, RowDTO{
			Character: string(o.Character),
			Display:   o.DisplayCharacter(),
			Code:      o.Code,
			Count:     o.Count,
		})
	}
	return rows
}

func toFrequenciesDTO(snap lessonUC.Snapshot) FrequenciesDTO {
	return FrequenciesDTO{
		Generation: snap.Generation,
		Source:     snap.Source,
		TextLength: snap.TextLength(),
		Rows:       toRows(snap),
	}
}
