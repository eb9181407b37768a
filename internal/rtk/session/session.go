// Package session walks an assistant application's session transcripts and
// extracts the Bash commands they ran, paired with their results.
//
// Grounded on original_source/rtk/src/discover/provider.rs's
// SessionProvider trait and ClaudeProvider implementation, ported line
// for line: the two-pass tool_use/tool_result join keyed by tool_use_id,
// the "\"Bash\""/"\"tool_result\"" line pre-filter, and the chronological
// sequence_index assigned in tool_use encounter order.
package session

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// ExtractedCommand is one Bash tool_use paired with its tool_result, if any.
type ExtractedCommand struct {
	Command        string
	OutputLen      *int
	SessionID      string
	OutputContent  *string
	IsError        bool
	SequenceIndex  int
}

// EncodeProjectPath mirrors ClaudeProvider::encode_project_path: the
// assistant application encodes a project's absolute path into its
// projects directory name by replacing path separators with hyphens.
func EncodeProjectPath(path string) string {
	return strings.ReplaceAll(path, "/", "-")
}

// ProjectsDir returns the assistant application's session-log root,
// erroring if it has never been used (directory absent).
func ProjectsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("determine home directory: %w", err)
	}
	dir := filepath.Join(home, ".claude", "projects")
	if _, err := os.Stat(dir); err != nil {
		return "", fmt.Errorf("session projects directory not found: %s (has the assistant application been used at least once?)", dir)
	}
	return dir, nil
}

// DiscoverSessions walks every project directory under ProjectsDir,
// returning .jsonl files matching an optional substring project filter
// and an optional "modified within the last sinceDays days" cutoff.
func DiscoverSessions(projectFilter string, sinceDays int) ([]string, error) {
	root, err := ProjectsDir()
	if err != nil {
		return nil, err
	}

	var cutoff time.Time
	hasCutoff := sinceDays > 0
	if hasCutoff {
		cutoff = time.Now().Add(-time.Duration(sinceDays) * 24 * time.Hour)
	}

	entries, err := os.ReadDir(root)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", root, err)
	}

	var sessions []string
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if projectFilter != "" && !strings.Contains(entry.Name(), projectFilter) {
			continue
		}

		projectPath := filepath.Join(root, entry.Name())
		err := filepath.WalkDir(projectPath, func(path string, d fs.DirEntry, err error) error {
			if err != nil {
				return nil // best-effort walk, skip unreadable entries
			}
			if d.IsDir() || filepath.Ext(path) != ".jsonl" {
				return nil
			}
			if hasCutoff {
				info, err := d.Info()
				if err == nil && info.ModTime().Before(cutoff) {
					return nil
				}
			}
			sessions = append(sessions, path)
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

type toolUse struct {
	id       string
	command  string
	sequence int
}

type toolResult struct {
	outputLen int
	content   string
	isError   bool
}

// ExtractCommands reads one session file and joins its Bash tool_use
// blocks with their tool_result blocks, in sequence order.
func ExtractCommands(path string) ([]ExtractedCommand, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	sessionID := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	var pending []toolUse
	results := make(map[string]toolResult)
	sequence := 0

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 10<<20)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.Contains(line, `"Bash"`) && !strings.Contains(line, `"tool_result"`) {
			continue
		}

		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}

		switch entry["type"] {
		case "assistant":
			for _, block := range contentBlocks(entry) {
				if blockStr(block, "type") != "tool_use" || blockStr(block, "name") != "Bash" {
					continue
				}
				id, _ := block["id"].(string)
				cmd := blockPointerStr(block, "input", "command")
				if id == "" || cmd == "" {
					continue
				}
				pending = append(pending, toolUse{id: id, command: cmd, sequence: sequence})
				sequence++
			}
		case "user":
			for _, block := range contentBlocks(entry) {
				if blockStr(block, "type") != "tool_result" {
					continue
				}
				id, _ := block["tool_use_id"].(string)
				if id == "" {
					continue
				}
				content, _ := block["content"].(string)
				isError, _ := block["is_error"].(bool)
				results[id] = toolResult{
					outputLen: len(content),
					content:   firstNRunes(content, 1000),
					isError:   isError,
				}
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan %s: %w", path, err)
	}

	commands := make([]ExtractedCommand, 0, len(pending))
	for _, tu := range pending {
		ec := ExtractedCommand{
			Command:       tu.command,
			SessionID:     sessionID,
			SequenceIndex: tu.sequence,
		}
		if res, ok := results[tu.id]; ok {
			outputLen := res.outputLen
			content := res.content
			ec.OutputLen = &outputLen
			ec.OutputContent = &content
			ec.IsError = res.isError
		}
		commands = append(commands, ec)
	}
	return commands, nil
}

func contentBlocks(entry map[string]any) []map[string]any {
	message, ok := entry["message"].(map[string]any)
	if !ok {
		return nil
	}
	raw, ok := message["content"].([]any)
	if !ok {
		return nil
	}
	var blocks []map[string]any
	for _, item := range raw {
		if b, ok := item.(map[string]any); ok {
			blocks = append(blocks, b)
		}
	}
	return blocks
}

func blockStr(block map[string]any, key string) string {
	v, _ := block[key].(string)
	return v
}

func blockPointerStr(block map[string]any, objKey, fieldKey string) string {
	obj, ok := block[objKey].(map[string]any)
	if !ok {
		return ""
	}
	v, _ := obj[fieldKey].(string)
	return v
}

func firstNRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
