package lesson

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"charcounter/internal/handler/http/respond"
	lessonUC "charcounter/internal/usecase/lesson"
)

//go:embed templates/index.html.tmpl
var templateFS embed.FS

var pageTemplate = template.Must(template.ParseFS(templateFS, "templates/index.html.tmpl"))

type assignment struct {
	Course        string
	Summary       string
	Requirements  []string
	ExampleOutput string
}

type pageData struct {
	Assignment assignment
	Objectives []string
	Samples    []string
	Snapshot   lessonUC.Snapshot
	Rows       []RowDTO
}

var lessonAssignment = assignment{
	Course: "CSCI312: Character Counter - Array",
	Summary: "Design a program that reads in an ASCII text file (provided) one byte at a time " +
		"and creates an output file that contains the frequency count of how many times " +
		"each character appears in the input file.",
	Requirements: []string{
		"Do not sort the output",
		"Each unique character must be represented by a character frequency class instance",
		"Character frequency objects must be processed and stored using an array",
	},
	ExampleOutput: "(10) 1\n(13) 1\n.(46) 1\nH(72) 1\ne(101) 1\nl(108) 2\no(111) 1",
}

var learningObjectives = []string{
	"Understand array manipulation",
	"Implement file I/O operations",
	"Create a character frequency tracking type",
	"Process input files byte by byte",
}

// PageHandler renders the lesson page from the current snapshot.
type PageHandler struct{ Svc Service }

func (h PageHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	snap := h.Svc.Snapshot()
	data := pageData{
		Assignment: lessonAssignment,
		Objectives: learningObjectives,
		Samples:    SampleNames(),
		Snapshot:   snap,
		Rows:       toRows(snap),
	}

	// render into a buffer so a template error never yields a half-written page
	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		respond.SafeError(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}

// FrequenciesHandler returns the current snapshot as JSON.
type FrequenciesHandler struct{ Svc Service }

func (h FrequenciesHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-store")
	respond.JSON(w, http.StatusOK, toFrequenciesDTO(h.Svc.Snapshot()))
}
