// Command mockbackend is a canned stand-in for the assessment backend, good enough
// to click through the gateway locally. It keeps no state.
package main

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/HanTheDev/personality-gateway/internal/httpx"
)

var questions = []map[string]any{
	{"id": 1, "text": "I prefer to work alone rather than in groups.", "dimension": "E/I", "trait_high": "I", "trait_low": "E"},
	{"id": 2, "text": "I focus on details and facts rather than possibilities.", "dimension": "S/N", "trait_high": "S", "trait_low": "N"},
	{"id": 3, "text": "I make decisions based on logic rather than feelings.", "dimension": "T/F", "trait_high": "T", "trait_low": "F"},
	{"id": 4, "text": "I prefer to have things planned and organized.", "dimension": "J/P", "trait_high": "J", "trait_low": "P"},
}

func main() {
	logger, err := zap.NewDevelopment()
	if err != nil {
		fmt.Fprintln(os.Stderr, "creating logger:", err)
		os.Exit(1)
	}
	defer logger.Sync()

	router := mux.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			logger.Info("Received request", zap.String("method", r.Method), zap.String("path", r.URL.Path),
				zap.String("user_id", r.Header.Get("user-id")))
			next.ServeHTTP(w, r)
		})
	})

	router.HandleFunc("/questions", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, questions)
	}).Methods("GET")

	router.HandleFunc("/users", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"id": 1, "name": "Visitante", "email": "visitante@example.com", "created_at": time.Now().UTC(),
		})
	}).Methods("POST")

	router.HandleFunc("/test-session", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, sessionState("in_progress", 0))
	}).Methods("POST")

	router.HandleFunc("/test-session/{sessionId}/answer", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, sessionState("completed", len(questions)))
	}).Methods("POST")

	router.HandleFunc("/test-session/{sessionId}/rewind", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, sessionState("in_progress", 0))
	}).Methods("POST")

	router.HandleFunc("/submit-test", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"personality_type": "INTJ",
			"description":      "You have an INTJ personality type.",
			"test_result_id":   1,
		})
	}).Methods("POST")

	router.HandleFunc("/chat", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, map[string]any{
			"id": 2, "message": "Olá! Como você está se sentindo hoje?", "is_user": false, "timestamp": time.Now().UTC(),
		})
	}).Methods("POST")

	router.HandleFunc("/chat/{userId}", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, []map[string]any{})
	}).Methods("GET")

	router.HandleFunc("/users/{userId}/test-results", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusOK, []map[string]any{})
	}).Methods("GET")

	router.HandleFunc("/users/{userId}/personality", func(w http.ResponseWriter, r *http.Request) {
		httpx.WriteJSON(w, http.StatusNotFound, map[string]any{"detail": "No test results found for user"})
	}).Methods("GET")

	addr := ":8000"
	if port := os.Getenv("MOCK_BACKEND_PORT"); port != "" {
		addr = ":" + port
	}
	logger.Info("Mock backend starting", zap.String("addr", addr))
	if err := http.ListenAndServe(addr, router); err != nil {
		logger.Fatal("Mock backend failed", zap.Error(err))
	}
}

func sessionState(status string, answered int) map[string]any {
	state := map[string]any{
		"id":              1,
		"user_id":         1,
		"status":          status,
		"current_index":   answered,
		"total_questions": len(questions),
		"answers_count":   answered,
		"answered":        []any{},
		"question":        nil,
	}
	if status == "completed" {
		state["personality_type"] = "INTJ"
		state["trait_scores"] = map[string]int{"E": 1, "I": 5, "S": 2, "N": 4, "T": 5, "F": 1, "J": 4, "P": 2}
	} else {
		state["question"] = questions[answered]
	}
	return state
}
