package ai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

func TestGenerateText(t *testing.T) {
	var gotAuth, gotModel string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		gotAuth = r.Header.Get("Authorization")
		var req oaiChatRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotModel = req.Model
		if len(req.Messages) != 2 || req.Messages[0].Role != "system" {
			t.Errorf("unexpected messages %+v", req.Messages)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]string{"role": "assistant", "content": "  a review  "}},
			},
		})
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL+"/v1", "sk-test", "gpt-test", "whisper-1")
	out, err := client.GenerateText(context.Background(), "be helpful", "write a review")
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	if out != "a review" {
		t.Fatalf("response should be trimmed, got %q", out)
	}
	if gotAuth != "Bearer sk-test" {
		t.Fatalf("missing auth header, got %q", gotAuth)
	}
	if gotModel != "gpt-test" {
		t.Fatalf("unexpected model %q", gotModel)
	}
}

func TestGenerateTextAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_ = json.NewEncoder(w).Encode(map[string]any{
			"error": map[string]string{"message": "rate limited", "type": "rate_limit"},
		})
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL+"/v1", "sk-test", "gpt-test", "whisper-1")
	_, err := client.GenerateText(context.Background(), "", "prompt")
	if err == nil || !strings.Contains(err.Error(), "rate limited") {
		t.Fatalf("expected api error message, got %v", err)
	}
}

func TestGenerateTextEmptyChoices(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"choices": []any{}})
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL+"/v1", "", "gpt-test", "whisper-1")
	if _, err := client.GenerateText(context.Background(), "", "prompt"); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}

func TestTranscribe(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("parse multipart: %v", err)
		}
		if got := r.FormValue("model"); got != "whisper-1" {
			t.Errorf("unexpected model %q", got)
		}
		file, header, err := r.FormFile("file")
		if err != nil {
			t.Errorf("form file: %v", err)
		} else {
			defer file.Close()
			if header.Filename != "audio.ogg" {
				t.Errorf("unexpected filename %q", header.Filename)
			}
			payload, _ := io.ReadAll(file)
			if string(payload) != "oggdata" {
				t.Errorf("unexpected payload %q", payload)
			}
		}
		_ = json.NewEncoder(w).Encode(map[string]string{"text": " spoken words \n"})
	}))
	defer server.Close()

	client := NewOpenAIClient(server.URL+"/v1", "sk-test", "gpt-test", "whisper-1")
	out, err := client.Transcribe(context.Background(), []byte("oggdata"), "ogg")
	if err != nil {
		t.Fatalf("transcribe: %v", err)
	}
	if out != "spoken words" {
		t.Fatalf("transcription should be trimmed, got %q", out)
	}
}

func TestTranscribeRejectsEmptyAudio(t *testing.T) {
	client := NewOpenAIClient("http://localhost/v1", "", "gpt-test", "whisper-1")
	if _, err := client.Transcribe(context.Background(), nil, "ogg"); err == nil {
		t.Fatalf("expected error for empty audio")
	}
}

func TestModelsRequired(t *testing.T) {
	client := NewOpenAIClient("http://localhost/v1", "", "", "")
	if _, err := client.GenerateText(context.Background(), "", "p"); err == nil {
		t.Fatalf("expected error without generation model")
	}
	if _, err := client.Transcribe(context.Background(), []byte("x"), "ogg"); err == nil {
		t.Fatalf("expected error without transcription model")
	}
}
