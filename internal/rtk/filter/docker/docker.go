// Package docker implements the docker filter: `docker ps` and
// `docker images` re-emitted as a compact per-entry summary, `docker
// logs` tailed and truncated, everything else passed through unchanged.
//
// Grounded on original_source/rtk/src/container.rs's docker_ps/
// docker_images/docker_logs: the same three subcommands get special
// handling, the same 15-entry cap with "... +N more", the same
// tab-separated `--format` strings used to pull exactly the fields
// needed out of the real docker CLI. Uptimes and image sizes go through
// docker/go-units's HumanDuration/HumanSize instead of container.rs's
// own ad hoc GB/MB string parsing, since `docker image inspect
// --format '{{.Size}}'` hands back a raw byte count and `docker ps
// --format '{{.CreatedAt}}'` a fixed-layout timestamp rather than
// the already-humanized text the default `docker ps`/`docker images`
// tables print. Like the git filter, container.rs's emoji markers
// (🐳/☸️) are dropped for this repo's plain bracketed-label style.
package docker

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/docker/go-units"

	"github.com/rtk-proxy/rtk/internal/rtk/filter"
	"github.com/rtk-proxy/rtk/internal/rtk/formatter"
)

const toolName = "docker"
const defaultTimeout = 30 * time.Second
const maxEntries = 15

type Filter struct{}

func New() *Filter { return &Filter{} }

func (*Filter) Run(ctx context.Context, io filter.IO, args []string, mode formatter.Mode) (int, error) {
	if len(args) == 0 {
		return runPassthrough(ctx, io, args)
	}
	switch args[0] {
	case "ps":
		return runPs(ctx, io, args[1:])
	case "images":
		return runImages(ctx, io, args[1:])
	case "logs":
		return runLogs(ctx, io, args[1:])
	default:
		return runPassthrough(ctx, io, args)
	}
}

func record(io filter.IO, original, rtkCmd, rawOutput, rendered string, elapsedMs int64) {
	if io.Tel == nil {
		return
	}
	inputTokens := len(rawOutput) / 4
	outputTokens := len(rendered) / 4
	_ = io.Tel.Record(original, rtkCmd, inputTokens, outputTokens, elapsedMs)
}

func runPassthrough(ctx context.Context, io filter.IO, args []string) (int, error) {
	start := time.Now()
	res, err := io.Runner.Run(ctx, io.Dir, toolName, args, defaultTimeout)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return 1, fmt.Errorf("run docker: %w", err)
	}
	if res.Stdout != "" {
		fmt.Fprint(io.Stdout, res.Stdout)
	}
	if res.Stderr != "" {
		fmt.Fprint(io.Stderr, res.Stderr)
	}
	original := strings.TrimSpace("docker " + strings.Join(args, " "))
	if io.Tel != nil {
		_ = io.Tel.RecordPassthrough(original, original, elapsed)
	}
	return res.ExitCode, nil
}

// dockerPsLayout is the fixed format docker ps prints for {{.CreatedAt}}.
const dockerPsLayout = "2006-01-02 15:04:05 -0700 MST"

func runPs(ctx context.Context, io filter.IO, extraArgs []string) (int, error) {
	start := time.Now()
	formatArgs := append([]string{"ps", "--format", "{{.ID}}\t{{.Names}}\t{{.Image}}\t{{.CreatedAt}}\t{{.Ports}}"}, extraArgs...)
	res, err := io.Runner.Run(ctx, io.Dir, toolName, formatArgs, defaultTimeout)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return 1, fmt.Errorf("run docker ps: %w", err)
	}
	if res.ExitCode != 0 {
		fmt.Fprint(io.Stderr, res.Stderr)
		return res.ExitCode, nil
	}

	rendered := formatPsOutput(res.Stdout)
	fmt.Fprintln(io.Stdout, rendered)
	record(io, "docker ps", "rtk docker ps", res.Stdout, rendered, elapsed)
	return 0, nil
}

func formatPsOutput(output string) string {
	lines := nonEmptyLines(output)
	if len(lines) == 0 {
		return "0 containers"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d containers:", len(lines))
	for i, line := range lines {
		if i >= maxEntries {
			fmt.Fprintf(&b, "\n  ... +%d more", len(lines)-maxEntries)
			break
		}
		parts := strings.Split(line, "\t")
		if len(parts) < 4 {
			continue
		}
		id, name, image, createdAt := parts[0], parts[1], parts[2], parts[3]
		if len(id) > 12 {
			id = id[:12]
		}
		shortImage := lastPathSegment(image)
		uptime := uptimeFrom(createdAt)
		if len(parts) >= 5 && compactPorts(parts[4]) != "-" {
			fmt.Fprintf(&b, "\n  %s %s (%s) up %s [%s]", id, name, shortImage, uptime, compactPorts(parts[4]))
		} else {
			fmt.Fprintf(&b, "\n  %s %s (%s) up %s", id, name, shortImage, uptime)
		}
	}
	return b.String()
}

// uptimeFrom parses docker ps's fixed CreatedAt layout and renders the
// elapsed time with go-units.HumanDuration, falling back to the raw
// string if it doesn't parse (a stopped container, an unexpected locale).
func uptimeFrom(createdAt string) string {
	t, err := time.Parse(dockerPsLayout, createdAt)
	if err != nil {
		return createdAt
	}
	return units.HumanDuration(time.Since(t))
}

func compactPorts(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "-"
	}
	parts := strings.Split(raw, ", ")
	seen := make(map[string]bool)
	var kept []string
	for _, p := range parts {
		idx := strings.LastIndex(p, "->")
		port := p
		if idx >= 0 {
			port = p[idx+2:]
		}
		if !seen[port] {
			seen[port] = true
			kept = append(kept, port)
		}
	}
	return strings.Join(kept, ",")
}

func lastPathSegment(s string) string {
	if idx := strings.LastIndex(s, "/"); idx >= 0 {
		return s[idx+1:]
	}
	return s
}

func runImages(ctx context.Context, io filter.IO, extraArgs []string) (int, error) {
	start := time.Now()
	listArgs := append([]string{"images", "--format", "{{.ID}}\t{{.Repository}}:{{.Tag}}"}, extraArgs...)
	listRes, err := io.Runner.Run(ctx, io.Dir, toolName, listArgs, defaultTimeout)
	if err != nil {
		return 1, fmt.Errorf("run docker images: %w", err)
	}
	if listRes.ExitCode != 0 {
		fmt.Fprint(io.Stderr, listRes.Stderr)
		return listRes.ExitCode, nil
	}

	lines := nonEmptyLines(listRes.Stdout)
	type imageEntry struct {
		id, repoTag string
		sizeBytes   int64
	}
	entries := make([]imageEntry, 0, len(lines))
	var rawBuilder strings.Builder
	rawBuilder.WriteString(listRes.Stdout)

	for _, line := range lines {
		parts := strings.SplitN(line, "\t", 2)
		if len(parts) != 2 {
			continue
		}
		id := parts[0]
		sizeRes, err := io.Runner.Run(ctx, io.Dir, toolName, []string{"image", "inspect", id, "--format", "{{.Size}}"}, defaultTimeout)
		var size int64
		if err == nil && sizeRes.ExitCode == 0 {
			size, _ = strconv.ParseInt(strings.TrimSpace(sizeRes.Stdout), 10, 64)
			rawBuilder.WriteString(sizeRes.Stdout)
		}
		entries = append(entries, imageEntry{id: id, repoTag: parts[1], sizeBytes: size})
	}
	elapsed := time.Since(start).Milliseconds()

	if len(entries) == 0 {
		fmt.Fprintln(io.Stdout, "0 images")
		record(io, "docker images", "rtk docker images", rawBuilder.String(), "0 images", elapsed)
		return 0, nil
	}

	var total int64
	for _, e := range entries {
		total += e.sizeBytes
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%d images (%s):", len(entries), units.HumanSize(float64(total)))
	for i, e := range entries {
		if i >= maxEntries {
			fmt.Fprintf(&b, "\n  ... +%d more", len(entries)-maxEntries)
			break
		}
		id := e.id
		if len(id) > 12 {
			id = id[:12]
		}
		fmt.Fprintf(&b, "\n  %s [%s] %s", e.repoTag, units.HumanSize(float64(e.sizeBytes)), id)
	}

	rendered := b.String()
	fmt.Fprintln(io.Stdout, rendered)
	record(io, "docker images", "rtk docker images", rawBuilder.String(), rendered, elapsed)
	return 0, nil
}

func runLogs(ctx context.Context, io filter.IO, args []string) (int, error) {
	if len(args) == 0 {
		fmt.Fprintln(io.Stdout, "usage: rtk docker logs <container>")
		return 0, nil
	}
	containerName := args[len(args)-1]

	start := time.Now()
	logArgs := append([]string{"logs", "--tail", "100"}, args...)
	res, err := io.Runner.Run(ctx, io.Dir, toolName, logArgs, defaultTimeout)
	elapsed := time.Since(start).Milliseconds()
	if err != nil {
		return 1, fmt.Errorf("run docker logs: %w", err)
	}
	if res.ExitCode != 0 {
		fmt.Fprint(io.Stderr, res.Stderr)
		return res.ExitCode, nil
	}

	rendered := tailLog(res.Stdout+res.Stderr, 40)
	fmt.Fprintf(io.Stdout, "logs for %s:\n%s\n", containerName, rendered)
	record(io, fmt.Sprintf("docker logs %s", containerName), "rtk docker logs", res.Stdout+res.Stderr, rendered, elapsed)
	return 0, nil
}

func tailLog(output string, maxLines int) string {
	lines := strings.Split(strings.TrimRight(output, "\n"), "\n")
	if len(lines) <= maxLines {
		return strings.Join(lines, "\n")
	}
	tail := lines[len(lines)-maxLines:]
	return fmt.Sprintf("... (%d earlier lines omitted)\n%s", len(lines)-maxLines, strings.Join(tail, "\n"))
}

func nonEmptyLines(s string) []string {
	var out []string
	for _, line := range strings.Split(s, "\n") {
		if strings.TrimSpace(line) != "" {
			out = append(out, line)
		}
	}
	return out
}
