package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/noah-isme/students-gateway/internal/dto"
	"github.com/noah-isme/students-gateway/internal/service"
)

type importEnvelope struct {
	Data  *dto.ImportResponse `json:"data"`
	Error *struct {
		Code    string          `json:"code"`
		Message string          `json:"message"`
		Details json.RawMessage `json:"details"`
	} `json:"error"`
}

func main() {
	var (
		file    string
		gateway string
		prefix  string
		token   string
		dryRun  bool
		timeout time.Duration
	)

	flag.StringVar(&file, "file", "", "Path to a JSON array of student objects")
	flag.StringVar(&gateway, "gateway", "http://localhost:8080", "Gateway base URL")
	flag.StringVar(&prefix, "prefix", "/api/v1", "Gateway API prefix")
	flag.StringVar(&token, "token", os.Getenv("STUDENTS_TOKEN"), "Bearer token (defaults to $STUDENTS_TOKEN)")
	flag.BoolVar(&dryRun, "dry-run", false, "Validate locally without importing")
	flag.DurationVar(&timeout, "timeout", time.Minute, "HTTP client timeout")
	flag.Parse()

	if file == "" {
		log.Fatal("-file is required")
	}
	raw, err := os.ReadFile(file)
	if err != nil {
		log.Fatalf("failed to read payload: %v", err)
	}

	parsed := service.NewBulkParser(service.NewStudentValidator(nil)).Parse(string(raw))
	printValidation(parsed)
	if !parsed.OK() {
		os.Exit(1)
	}
	if dryRun {
		return
	}
	if token == "" {
		log.Fatal("a bearer token is required to import")
	}

	client := &http.Client{Timeout: timeout}
	result, err := submit(client, strings.TrimRight(gateway, "/")+prefix+"/students/import", token, raw)
	if err != nil {
		log.Fatalf("import failed: %v", err)
	}
	fmt.Printf("%s (imported %d, failed %d)\n", result.Message, result.SuccessCount, result.FailCount)
	if !result.Success {
		os.Exit(1)
	}
}

func submit(client *http.Client, url, token string, payload []byte) (*dto.ImportResponse, error) {
	req, err := http.NewRequest(http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	var env importEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if env.Error != nil {
		return nil, fmt.Errorf("%s: %s %s", env.Error.Code, env.Error.Message, string(env.Error.Details))
	}
	if env.Data == nil {
		return nil, errors.New("empty response")
	}
	return env.Data, nil
}

func printValidation(result service.BulkParseResult) {
	fmt.Println("Bulk Import Validation")
	fmt.Println("======================")
	if result.OK() {
		fmt.Printf("[OK] %d students ready to import\n", len(result.Records))
		return
	}
	fmt.Printf("[%s] %s\n", result.Kind, result.Summary)
	for _, msg := range result.Errors {
		fmt.Printf("  %s\n", msg)
	}
}
