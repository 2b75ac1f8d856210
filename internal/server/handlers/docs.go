package handlers

import (
	"net/http"

	"github.com/swaggo/swag"
)

// HandleOpenAPI serves the swag-registered API document.
// The docs package must be imported (for its init) by the binary.
func HandleOpenAPI(w http.ResponseWriter, r *http.Request) {
	doc, err := swag.ReadDoc()
	if err != nil {
		http.Error(w, "API documentation not available", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(doc))
}
