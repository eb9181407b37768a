// Package hook installs and manages the Claude Code PreToolUse hook that
// rewrites Bash tool calls to run through rtk, plus the CLAUDE.md/RTK.md
// documentation that makes the assistant aware of rtk's command surface.
//
// Ported directly from original_source/rtk/src/init.rs: the settings.json
// patch state machine (PatchMode/PatchResult), the hook-script/RTK.md
// idempotent-write helpers, the consent prompt, the CLAUDE.md migration
// from a full legacy injection to an @RTK.md reference, and uninstall.
// Rust's include_str! embedded templates become Go's //go:embed; the
// rtk-rewrite.sh and rtk-awareness.md/rtk-instructions.md template
// contents are authored fresh for rtk's own (Go-oriented) command
// surface since the originals aren't in the retrieval pack.
package hook

import (
	"bufio"
	_ "embed"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/moby/term"

	"github.com/rtk-proxy/rtk/internal/rtk/config"
)

//go:embed templates/rtk-rewrite.sh
var rewriteHook string

//go:embed templates/rtk-awareness.md
var rtkSlim string

//go:embed templates/rtk-instructions.md
var rtkInstructions string

// PatchMode controls how patch_settings_json behaves when it needs user
// confirmation to mutate settings.json.
type PatchMode int

const (
	PatchAsk PatchMode = iota
	PatchAuto
	PatchSkip
)

// PatchResult reports what patchSettingsJSON actually did.
type PatchResult int

const (
	ResultPatched PatchResult = iota
	ResultAlreadyPresent
	ResultDeclined
	ResultSkipped
)

// resolveClaudeDir returns ~/.claude, mirroring dirs::home_dir().join(".claude").
func resolveClaudeDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	return filepath.Join(home, ".claude"), nil
}

func prepareHookPaths() (hookDir, hookPath string, err error) {
	claudeDir, err := resolveClaudeDir()
	if err != nil {
		return "", "", err
	}
	hookDir = filepath.Join(claudeDir, "hooks")
	if err := os.MkdirAll(hookDir, 0o755); err != nil {
		return "", "", fmt.Errorf("create hook directory %s: %w", hookDir, err)
	}
	hookPath = filepath.Join(hookDir, "rtk-rewrite.sh")
	return hookDir, hookPath, nil
}

// ensureHookInstalled writes the hook script if missing or stale and
// marks it executable, returning whether it changed.
func ensureHookInstalled(hookPath string, verbose int) (bool, error) {
	changed, err := writeIfChanged(hookPath, rewriteHook, "hook", verbose)
	if err != nil {
		return false, err
	}
	if err := os.Chmod(hookPath, 0o755); err != nil {
		return false, fmt.Errorf("set hook permissions %s: %w", hookPath, err)
	}
	return changed, nil
}

// writeIfChanged is an idempotent file write: create or overwrite only
// when content differs.
func writeIfChanged(path, content, name string, verbose int) (bool, error) {
	existing, err := os.ReadFile(path)
	if err == nil {
		if string(existing) == content {
			if verbose > 0 {
				fmt.Fprintf(os.Stderr, "%s already up to date: %s\n", name, path)
			}
			return false, nil
		}
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			return false, fmt.Errorf("write %s %s: %w", name, path, err)
		}
		if verbose > 0 {
			fmt.Fprintf(os.Stderr, "Updated %s: %s\n", name, path)
		}
		return true, nil
	}
	if !os.IsNotExist(err) {
		return false, fmt.Errorf("read %s %s: %w", name, path, err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		return false, fmt.Errorf("write %s %s: %w", name, path, err)
	}
	if verbose > 0 {
		fmt.Fprintf(os.Stderr, "Created %s: %s\n", name, path)
	}
	return true, nil
}

// atomicWrite writes via a temp file in the same directory then renames,
// so a crash mid-write never leaves a corrupted target.
func atomicWrite(path, content string) error {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, ".rtk-tmp-*")
	if err != nil {
		return fmt.Errorf("create temp file in %s: %w", dir, err)
	}
	tmpPath := tmp.Name()
	if _, err := tmp.WriteString(content); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replace %s (disk full?): %w", path, err)
	}
	return nil
}

// promptUserConsent asks [y/N] on stderr, defaulting to No when stdin
// isn't a terminal (piped/non-interactive).
func promptUserConsent(settingsPath string) (bool, error) {
	fmt.Fprintf(os.Stderr, "\nPatch existing %s? [y/N] ", settingsPath)

	if !term.IsTerminal(os.Stdin.Fd()) {
		fmt.Fprintln(os.Stderr, "(non-interactive mode, defaulting to N)")
		return false, nil
	}

	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return false, fmt.Errorf("read user input: %w", err)
	}
	response := strings.ToLower(strings.TrimSpace(line))
	return response == "y" || response == "yes", nil
}

func printManualInstructions(hookPath string) {
	fmt.Println("\n  MANUAL STEP: Add this to ~/.claude/settings.json:")
	fmt.Println("  {")
	fmt.Println("    \"hooks\": { \"PreToolUse\": [{")
	fmt.Println("      \"matcher\": \"Bash\",")
	fmt.Println("      \"hooks\": [{ \"type\": \"command\",")
	fmt.Printf("        \"command\": \"%s\"\n", hookPath)
	fmt.Println("      }]")
	fmt.Println("    }]}")
	fmt.Println("  }")
	fmt.Println("\n  Then restart Claude Code. Test with: git status")
}

// hookAlreadyPresent matches on the rtk-rewrite.sh substring so
// differing absolute-path formats still count as present.
func hookAlreadyPresent(root map[string]any, hookCommand string) bool {
	hooks, ok := root["hooks"].(map[string]any)
	if !ok {
		return false
	}
	preToolUse, ok := hooks["PreToolUse"].([]any)
	if !ok {
		return false
	}
	for _, entry := range preToolUse {
		entryMap, ok := entry.(map[string]any)
		if !ok {
			continue
		}
		hooksArr, ok := entryMap["hooks"].([]any)
		if !ok {
			continue
		}
		for _, h := range hooksArr {
			hMap, ok := h.(map[string]any)
			if !ok {
				continue
			}
			cmd, _ := hMap["command"].(string)
			if cmd == "" {
				continue
			}
			if cmd == hookCommand || (strings.Contains(cmd, "rtk-rewrite.sh") && strings.Contains(hookCommand, "rtk-rewrite.sh")) {
				return true
			}
		}
	}
	return false
}

// insertHookEntry deep-merges an rtk hook entry into settings.json,
// creating hooks.PreToolUse if missing and preserving everything else.
func insertHookEntry(root map[string]any, hookCommand string) {
	hooksVal, ok := root["hooks"].(map[string]any)
	if !ok {
		hooksVal = map[string]any{}
		root["hooks"] = hooksVal
	}
	preToolUse, ok := hooksVal["PreToolUse"].([]any)
	if !ok {
		preToolUse = []any{}
	}
	preToolUse = append(preToolUse, map[string]any{
		"matcher": "Bash",
		"hooks": []any{
			map[string]any{"type": "command", "command": hookCommand},
		},
	})
	hooksVal["PreToolUse"] = preToolUse
}

// removeHookFromJSON removes rtk's PreToolUse entry, returning whether
// one was found.
func removeHookFromJSON(root map[string]any) bool {
	hooksVal, ok := root["hooks"].(map[string]any)
	if !ok {
		return false
	}
	preToolUse, ok := hooksVal["PreToolUse"].([]any)
	if !ok {
		return false
	}
	kept := make([]any, 0, len(preToolUse))
	removed := false
	for _, entry := range preToolUse {
		entryMap, ok := entry.(map[string]any)
		if !ok {
			kept = append(kept, entry)
			continue
		}
		isRTK := false
		if hooksArr, ok := entryMap["hooks"].([]any); ok {
			for _, h := range hooksArr {
				if hMap, ok := h.(map[string]any); ok {
					if cmd, _ := hMap["command"].(string); strings.Contains(cmd, "rtk-rewrite.sh") {
						isRTK = true
					}
				}
			}
		}
		if isRTK {
			removed = true
			continue
		}
		kept = append(kept, entry)
	}
	hooksVal["PreToolUse"] = kept
	return removed
}

// cleanDoubleBlanks collapses runs of 3+ blank lines down to 2.
func cleanDoubleBlanks(content string) string {
	lines := strings.Split(content, "\n")
	var result []string
	i := 0
	for i < len(lines) {
		if strings.TrimSpace(lines[i]) == "" {
			count := 0
			for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
				count++
				i++
			}
			if count > 2 {
				count = 2
			}
			for k := 0; k < count; k++ {
				result = append(result, "")
			}
		} else {
			result = append(result, lines[i])
			i++
		}
	}
	return strings.Join(result, "\n")
}

// removeRTKBlock strips a legacy full-injection block from CLAUDE.md,
// reporting whether a migration happened.
func removeRTKBlock(content string) (string, bool) {
	const startMarker = "<!-- rtk-instructions"
	const endMarker = "<!-- /rtk-instructions -->"

	start := strings.Index(content, startMarker)
	end := strings.Index(content, endMarker)
	if start >= 0 && end >= 0 {
		endPos := end + len(endMarker)
		before := strings.TrimRight(content[:start], " \t\n")
		after := strings.TrimLeft(content[endPos:], " \t\n")
		if after == "" {
			return before, true
		}
		return before + "\n\n" + after, true
	}
	if start >= 0 {
		fmt.Fprintln(os.Stderr, "Warning: found '<!-- rtk-instructions' without closing marker.")
		fmt.Fprintln(os.Stderr, "    This can happen if CLAUDE.md was manually edited.")
		for i, line := range strings.Split(content, "\n") {
			if strings.Contains(line, startMarker) {
				fmt.Fprintf(os.Stderr, "    Location: line %d\n", i+1)
				break
			}
		}
		fmt.Fprintln(os.Stderr, "    Action: manually remove the incomplete block, then re-run: rtk init --global")
		return content, false
	}
	return content, false
}

// patchClaudeMD migrates a legacy full injection to the slim @RTK.md
// reference, adding the reference if absent.
func patchClaudeMD(path string, verbose int) (bool, error) {
	content := ""
	if data, err := os.ReadFile(path); err == nil {
		content = string(data)
	} else if !os.IsNotExist(err) {
		return false, fmt.Errorf("read %s: %w", path, err)
	}

	migrated := false
	if strings.Contains(content, "<!-- rtk-instructions") {
		newContent, didMigrate := removeRTKBlock(content)
		if didMigrate {
			content = newContent
			migrated = true
			if verbose > 0 {
				fmt.Fprintln(os.Stderr, "Migrated: removed old RTK block from CLAUDE.md")
			}
		}
	}

	if strings.Contains(content, "@RTK.md") {
		if verbose > 0 {
			fmt.Fprintln(os.Stderr, "@RTK.md reference already present in CLAUDE.md")
		}
		if migrated {
			if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
				return migrated, fmt.Errorf("write %s: %w", path, err)
			}
		}
		return migrated, nil
	}

	var newContent string
	if strings.TrimSpace(content) == "" {
		newContent = "@RTK.md\n"
	} else {
		newContent = strings.TrimRight(content, " \t\n") + "\n\n@RTK.md\n"
	}
	if err := os.WriteFile(path, []byte(newContent), 0o644); err != nil {
		return migrated, fmt.Errorf("write %s: %w", path, err)
	}
	if verbose > 0 {
		fmt.Fprintln(os.Stderr, "Added @RTK.md reference to CLAUDE.md")
	}
	return migrated, nil
}

// patchSettingsJSON is the orchestrator: read-or-create, check
// idempotency, handle the patch mode, merge, back up, write atomically.
func patchSettingsJSON(hookPath string, mode PatchMode, verbose int) (PatchResult, error) {
	claudeDir, err := resolveClaudeDir()
	if err != nil {
		return 0, err
	}
	settingsPath := filepath.Join(claudeDir, "settings.json")

	root, err := readJSONObject(settingsPath)
	if err != nil {
		return 0, err
	}

	if hookAlreadyPresent(root, hookPath) {
		if verbose > 0 {
			fmt.Fprintln(os.Stderr, "settings.json: hook already present")
		}
		return ResultAlreadyPresent, nil
	}

	switch mode {
	case PatchSkip:
		printManualInstructions(hookPath)
		return ResultSkipped, nil
	case PatchAsk:
		ok, err := promptUserConsent(settingsPath)
		if err != nil {
			return 0, err
		}
		if !ok {
			printManualInstructions(hookPath)
			return ResultDeclined, nil
		}
	case PatchAuto:
		// proceed without prompting
	}

	insertHookEntry(root, hookPath)

	if err := ValidateSettingsShape(root); err != nil {
		return 0, fmt.Errorf("refusing to write malformed settings.json: %w", err)
	}

	if _, err := os.Stat(settingsPath); err == nil {
		backupPath := settingsPath + ".bak"
		if err := copyFile(settingsPath, backupPath); err != nil {
			return 0, fmt.Errorf("backup to %s: %w", backupPath, err)
		}
		if verbose > 0 {
			fmt.Fprintf(os.Stderr, "Backup: %s\n", backupPath)
		}
	}

	serialized, err := marshalIndent(root)
	if err != nil {
		return 0, fmt.Errorf("serialize settings.json: %w", err)
	}
	if err := atomicWrite(settingsPath, serialized); err != nil {
		return 0, err
	}

	fmt.Println("\n  settings.json: hook added")
	if _, err := os.Stat(settingsPath + ".bak"); err == nil {
		fmt.Printf("  Backup: %s.bak\n", settingsPath)
	}
	fmt.Println("  Restart Claude Code. Test with: git status")

	return ResultPatched, nil
}

// removeHookFromSettings backs up then atomically rewrites settings.json
// with rtk's hook entry removed, returning whether one was found.
func removeHookFromSettings(verbose int) (bool, error) {
	claudeDir, err := resolveClaudeDir()
	if err != nil {
		return false, err
	}
	settingsPath := filepath.Join(claudeDir, "settings.json")

	data, err := os.ReadFile(settingsPath)
	if os.IsNotExist(err) {
		if verbose > 0 {
			fmt.Fprintln(os.Stderr, "settings.json not found, nothing to remove")
		}
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("read %s: %w", settingsPath, err)
	}
	if strings.TrimSpace(string(data)) == "" {
		return false, nil
	}

	root, err := unmarshalObject(data)
	if err != nil {
		return false, fmt.Errorf("parse %s as JSON: %w", settingsPath, err)
	}

	removed := removeHookFromJSON(root)
	if removed {
		backupPath := settingsPath + ".bak"
		if err := copyFile(settingsPath, backupPath); err != nil {
			return false, fmt.Errorf("backup to %s: %w", backupPath, err)
		}
		serialized, err := marshalIndent(root)
		if err != nil {
			return false, fmt.Errorf("serialize settings.json: %w", err)
		}
		if err := atomicWrite(settingsPath, serialized); err != nil {
			return false, err
		}
		if verbose > 0 {
			fmt.Fprintln(os.Stderr, "Removed rtk hook from settings.json")
		}
	}

	return removed, nil
}

// Options bundles rtk init's CLI flags.
type Options struct {
	Global    bool
	ClaudeMD  bool
	HookOnly  bool
	PatchMode PatchMode
	Verbose   int
}

// Run is the entry point for `rtk init`.
func Run(opts Options) error {
	switch {
	case opts.ClaudeMD:
		return runClaudeMDMode(opts.Global, opts.Verbose)
	case opts.HookOnly:
		return runHookOnlyMode(opts.Global, opts.PatchMode, opts.Verbose)
	default:
		return runDefaultMode(opts.Global, opts.PatchMode, opts.Verbose)
	}
}

func runDefaultMode(global bool, mode PatchMode, verbose int) error {
	if !global {
		return runClaudeMDMode(false, verbose)
	}

	claudeDir, err := resolveClaudeDir()
	if err != nil {
		return err
	}
	rtkMDPath := filepath.Join(claudeDir, "RTK.md")
	claudeMDPath := filepath.Join(claudeDir, "CLAUDE.md")

	_, hookPath, err := prepareHookPaths()
	if err != nil {
		return err
	}
	if _, err := ensureHookInstalled(hookPath, verbose); err != nil {
		return err
	}

	if _, err := writeIfChanged(rtkMDPath, rtkSlim, "RTK.md", verbose); err != nil {
		return err
	}

	migrated, err := patchClaudeMD(claudeMDPath, verbose)
	if err != nil {
		return err
	}

	fmt.Println("\nrtk hook installed (global).\n")
	fmt.Printf("  Hook:      %s\n", hookPath)
	fmt.Printf("  RTK.md:    %s\n", rtkMDPath)
	fmt.Println("  CLAUDE.md: @RTK.md reference added")
	if migrated {
		fmt.Println("\n  Migrated: removed legacy RTK block from CLAUDE.md, replaced with @RTK.md")
	}

	result, err := patchSettingsJSON(hookPath, mode, verbose)
	if err != nil {
		return err
	}
	reportPatchResult(result)
	fmt.Println()
	return nil
}

func runHookOnlyMode(global bool, mode PatchMode, verbose int) error {
	if !global {
		fmt.Fprintln(os.Stderr, "Warning: --hook-only only makes sense with --global")
		fmt.Fprintln(os.Stderr, "    For local projects, use default mode or --claude-md")
		return nil
	}

	_, hookPath, err := prepareHookPaths()
	if err != nil {
		return err
	}
	if _, err := ensureHookInstalled(hookPath, verbose); err != nil {
		return err
	}

	fmt.Println("\nrtk hook installed (hook-only mode).\n")
	fmt.Printf("  Hook: %s\n", hookPath)
	fmt.Println("  Note: no RTK.md created. Claude won't know about meta commands (gain, discover, proxy).")

	result, err := patchSettingsJSON(hookPath, mode, verbose)
	if err != nil {
		return err
	}
	reportPatchResult(result)
	fmt.Println()
	return nil
}

func reportPatchResult(result PatchResult) {
	switch result {
	case ResultAlreadyPresent:
		fmt.Println("\n  settings.json: hook already present")
		fmt.Println("  Restart Claude Code. Test with: git status")
	case ResultPatched, ResultDeclined, ResultSkipped:
		// already reported by patchSettingsJSON
	}
}

func runClaudeMDMode(global bool, verbose int) error {
	var path string
	if global {
		claudeDir, err := resolveClaudeDir()
		if err != nil {
			return err
		}
		path = filepath.Join(claudeDir, "CLAUDE.md")
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return err
		}
	} else {
		path = "CLAUDE.md"
	}

	if verbose > 0 {
		fmt.Fprintf(os.Stderr, "Writing rtk instructions to: %s\n", path)
	}

	existing, err := os.ReadFile(path)
	if err == nil {
		if strings.Contains(string(existing), "<!-- rtk-instructions") {
			fmt.Printf("%s already contains rtk instructions\n", path)
			return nil
		}
		newContent := strings.TrimRight(string(existing), " \t\n") + "\n\n" + rtkInstructions
		if err := os.WriteFile(path, []byte(newContent), 0o644); err != nil {
			return err
		}
		fmt.Printf("Added rtk instructions to existing %s\n", path)
	} else if os.IsNotExist(err) {
		if err := os.WriteFile(path, []byte(rtkInstructions), 0o644); err != nil {
			return err
		}
		fmt.Printf("Created %s with rtk instructions\n", path)
	} else {
		return err
	}

	if global {
		fmt.Println("   Claude Code will now use rtk in all sessions")
	} else {
		fmt.Println("   Claude Code will use rtk in this project")
	}
	return nil
}

// Uninstall removes every rtk artifact: hook script, RTK.md, the
// @RTK.md CLAUDE.md reference, and the settings.json hook entry.
func Uninstall(global bool, verbose int) error {
	if !global {
		return fmt.Errorf("uninstall only works with --global; for local projects, manually remove rtk from CLAUDE.md")
	}

	claudeDir, err := resolveClaudeDir()
	if err != nil {
		return err
	}
	var removed []string

	hookPath := filepath.Join(claudeDir, "hooks", "rtk-rewrite.sh")
	if _, err := os.Stat(hookPath); err == nil {
		if err := os.Remove(hookPath); err != nil {
			return fmt.Errorf("remove hook %s: %w", hookPath, err)
		}
		removed = append(removed, fmt.Sprintf("Hook: %s", hookPath))
	}

	rtkMDPath := filepath.Join(claudeDir, "RTK.md")
	if _, err := os.Stat(rtkMDPath); err == nil {
		if err := os.Remove(rtkMDPath); err != nil {
			return fmt.Errorf("remove RTK.md %s: %w", rtkMDPath, err)
		}
		removed = append(removed, fmt.Sprintf("RTK.md: %s", rtkMDPath))
	}

	claudeMDPath := filepath.Join(claudeDir, "CLAUDE.md")
	if data, err := os.ReadFile(claudeMDPath); err == nil {
		content := string(data)
		if strings.Contains(content, "@RTK.md") {
			var kept []string
			for _, line := range strings.Split(content, "\n") {
				if !strings.HasPrefix(strings.TrimSpace(line), "@RTK.md") {
					kept = append(kept, line)
				}
			}
			cleaned := cleanDoubleBlanks(strings.Join(kept, "\n"))
			if err := os.WriteFile(claudeMDPath, []byte(cleaned), 0o644); err != nil {
				return fmt.Errorf("write CLAUDE.md %s: %w", claudeMDPath, err)
			}
			removed = append(removed, "CLAUDE.md: removed @RTK.md reference")
		}
	}

	hookRemoved, err := removeHookFromSettings(verbose)
	if err != nil {
		return err
	}
	if hookRemoved {
		removed = append(removed, "settings.json: removed rtk hook entry")
	}

	if len(removed) == 0 {
		fmt.Println("rtk was not installed (nothing to remove)")
	} else {
		fmt.Println("rtk uninstalled:")
		for _, item := range removed {
			fmt.Printf("  - %s\n", item)
		}
		fmt.Println("\nRestart Claude Code to apply changes.")
	}
	return nil
}

// ShowConfig prints the current state of every rtk artifact, mirroring
// init.rs's show_config.
func ShowConfig() error {
	claudeDir, err := resolveClaudeDir()
	if err != nil {
		return err
	}
	hookPath := filepath.Join(claudeDir, "hooks", "rtk-rewrite.sh")
	rtkMDPath := filepath.Join(claudeDir, "RTK.md")
	globalClaudeMD := filepath.Join(claudeDir, "CLAUDE.md")
	localClaudeMD := "CLAUDE.md"

	fmt.Println("rtk configuration:")
	fmt.Println()

	if content, err := os.ReadFile(hookPath); err == nil {
		info, _ := os.Stat(hookPath)
		executable := info != nil && info.Mode()&0o111 != 0
		hasGuards := strings.Contains(string(content), "command -v rtk") && strings.Contains(string(content), "command -v jq")
		switch {
		case executable && hasGuards:
			fmt.Printf("[ok] Hook: %s (executable, with guards)\n", hookPath)
		case !executable:
			fmt.Printf("[!]  Hook: %s (NOT executable - run: chmod +x)\n", hookPath)
		default:
			fmt.Printf("[!]  Hook: %s (no guards - outdated)\n", hookPath)
		}
	} else {
		fmt.Println("[ ]  Hook: not found")
	}

	if _, err := os.Stat(rtkMDPath); err == nil {
		fmt.Printf("[ok] RTK.md: %s (slim mode)\n", rtkMDPath)
	} else {
		fmt.Println("[ ]  RTK.md: not found")
	}

	if content, err := os.ReadFile(globalClaudeMD); err == nil {
		switch {
		case strings.Contains(string(content), "@RTK.md"):
			fmt.Println("[ok] Global (~/.claude/CLAUDE.md): @RTK.md reference")
		case strings.Contains(string(content), "<!-- rtk-instructions"):
			fmt.Println("[!]  Global (~/.claude/CLAUDE.md): legacy RTK block (run: rtk init --global to migrate)")
		default:
			fmt.Println("[ ]  Global (~/.claude/CLAUDE.md): exists but rtk not configured")
		}
	} else {
		fmt.Println("[ ]  Global (~/.claude/CLAUDE.md): not found")
	}

	if content, err := os.ReadFile(localClaudeMD); err == nil {
		if strings.Contains(string(content), "rtk") {
			fmt.Println("[ok] Local (./CLAUDE.md): rtk enabled")
		} else {
			fmt.Println("[ ]  Local (./CLAUDE.md): exists but rtk not configured")
		}
	} else {
		fmt.Println("[ ]  Local (./CLAUDE.md): not found")
	}

	settingsPath := filepath.Join(claudeDir, "settings.json")
	if data, err := os.ReadFile(settingsPath); err == nil && strings.TrimSpace(string(data)) != "" {
		if root, err := unmarshalObject(data); err == nil {
			if hookAlreadyPresent(root, hookPath) {
				fmt.Println("[ok] settings.json: rtk hook configured")
			} else {
				fmt.Println("[!]  settings.json: exists but rtk hook not configured")
				fmt.Println("    Run: rtk init --global --auto")
			}
		} else {
			fmt.Println("[!]  settings.json: exists but invalid JSON")
		}
	} else if err == nil {
		fmt.Println("[ ]  settings.json: empty")
	} else {
		fmt.Println("[ ]  settings.json: not found")
	}

	fmt.Println("\nUsage:")
	fmt.Println("  rtk init              full injection into local CLAUDE.md")
	fmt.Println("  rtk init --global     hook + RTK.md + @RTK.md + settings.json (recommended)")
	fmt.Println("  rtk init --global --auto        same as above but no prompt")
	fmt.Println("  rtk init --global --skip-patch  skip settings.json (manual setup)")
	fmt.Println("  rtk uninstall --global          remove all rtk artifacts")
	return nil
}

// ValidateSettingsShape checks a settings.json document against the
// embedded schema before patch_settings_json mutates it, grounded on
// the teacher's internal/engine tool-call-argument validation use of
// the same library.
func ValidateSettingsShape(doc map[string]any) error {
	return config.ValidateJSONSchema(settingsSchema, doc)
}
