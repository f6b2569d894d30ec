package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"time"
)

const familyProgram = `male(john).
female(mary).
parent(john, mary).
parent(mary, sue).
grandparent(X, Y) :- parent(X, Z), parent(Z, Y).
`

var baseURL = "http://localhost:8080"

func main() {
	if v := os.Getenv("LOUBOT_URL"); v != "" {
		baseURL = v
	}

	// Wait for server to start
	time.Sleep(2 * time.Second)

	fmt.Println("Starting smoke test...")

	sessionID := fmt.Sprintf("smoke-%d@example.com", time.Now().Unix())

	fmt.Println("1. Uploading knowledge base...")
	if !uploadProgram(sessionID, familyProgram) {
		fmt.Println("FAILED: Upload")
		os.Exit(1)
	}
	fmt.Println("PASSED: Upload")

	fmt.Println("2. Asking a relation...")
	ask := map[string]string{
		"subject":  "sue",
		"relation": "grandparent",
		"message":  "who is sue's grandparent?",
	}
	if !sendRequest(sessionID, "POST", "/chat/relation", ask) {
		fmt.Println("FAILED: Relation chat")
		os.Exit(1)
	}
	fmt.Println("PASSED: Relation chat")

	fmt.Println("3. Storing a session value...")
	if !sendRequest(sessionID, "PUT", "/session/last_topic", map[string]string{"value": "family"}) ||
		!sendRequest(sessionID, "GET", "/session/last_topic", nil) {
		fmt.Println("FAILED: Session value")
		os.Exit(1)
	}
	fmt.Println("PASSED: Session value")
}

func uploadProgram(sessionID, program string) bool {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("prolog_file", "family.pl")
	if err != nil {
		fmt.Printf("Error creating form: %v\n", err)
		return false
	}
	_, _ = fw.Write([]byte(program))
	_ = mw.Close()

	req, err := http.NewRequest("POST", baseURL+"/knowledge/upload", &buf)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return false
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("X-Session-ID", sessionID)
	return do(req)
}

func sendRequest(sessionID, method, endpoint string, payload interface{}) bool {
	var body io.Reader
	if payload != nil {
		jsonBytes, _ := json.Marshal(payload)
		body = bytes.NewBuffer(jsonBytes)
	}

	req, err := http.NewRequest(method, baseURL+endpoint, body)
	if err != nil {
		fmt.Printf("Error creating request: %v\n", err)
		return false
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Session-ID", sessionID)
	return do(req)
}

func do(req *http.Request) bool {
	client := &http.Client{Timeout: 30 * time.Second}
	resp, err := client.Do(req)
	if err != nil {
		fmt.Printf("Error sending request: %v\n", err)
		return false
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		fmt.Printf("Request failed with status %d: %s\n", resp.StatusCode, string(respBody))
		return false
	}
	fmt.Printf("Response: %s\n", string(respBody))
	return true
}
