package main

import (
	"bufio"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	survey "github.com/AlecAivazis/survey/v2"
	"github.com/chzyer/readline"
	"golang.org/x/term"
)

// stdinReader is the one buffered reader over os.Stdin. A second reader on
// the same fd would swallow input meant for this one.
var stdinReader = bufio.NewReader(os.Stdin)

// Terminal replies (CPR and friends) that leak into typed input, both raw
// and caret-escaped.
var (
	ansiEscapeRE  = regexp.MustCompile(`\x1b\[[0-9;?]*[ -/]*[@-~]`)
	caretEscapeRE = regexp.MustCompile(`\^\[\[[0-9;?]*[ -/]*[@-~]`)
)

// fieldPromptText renders "  Field: " or "  Field [current]: ".
func fieldPromptText(field, current string) string {
	if current == "" {
		return "  " + field + ": "
	}
	return "  " + field + " [" + clrCyan + current + clrReset + "]: "
}

// readLine reads one line for field. An empty answer keeps current.
func readLine(field, current string) string {
	if s := readPromptLine(fieldPromptText(field, current)); s != "" {
		return s
	}
	return current
}

// readPassword reads without echo. It returns "" on a blank line or error.
func readPassword(field string) string {
	fmt.Print("  " + field + ": ")
	pw, err := term.ReadPassword(int(os.Stdin.Fd()))
	fmt.Println()
	if err != nil {
		return ""
	}
	return string(pw)
}

var yesNoAnswers = map[string]bool{"y": true, "yes": true, "n": false, "no": false}

// readYesNo asks a y/n question until it gets an answer. Enter picks defaultYes.
func readYesNo(msg string, defaultYes bool) bool {
	hint := "[y/N]"
	if defaultYes {
		hint = "[Y/n]"
	}
	for {
		s := strings.ToLower(readPromptLine("  " + msg + " " + hint + ": "))
		if s == "" {
			return defaultYes
		}
		if v, ok := yesNoAnswers[s]; ok {
			return v
		}
		fmt.Println("  Enter y or n")
	}
}

// readYesNoDanger asks before a destructive action: red prompt, default No.
func readYesNoDanger(msg string) bool {
	return readYesNo(clrRed+msg+clrReset, false)
}

// readLines collects lines up to the first empty one. When nothing is typed
// the current lines are kept.
func readLines(field string, current []string) []string {
	fmt.Printf("  %s (one per line, empty line to finish)\n", field)
	for _, l := range current {
		fmt.Printf("    %s%s%s\n", clrDim, l, clrReset)
	}
	if len(current) > 0 {
		fmt.Printf("  %sPress Enter to keep the lines above.%s\n", clrDim, clrReset)
	}
	var out []string
	for s := readPromptLine("  > "); s != ""; s = readPromptLine("  > ") {
		out = append(out, s)
	}
	if len(out) == 0 {
		return current
	}
	return out
}

// readPromptLine reads one trimmed line through readline, falling back to
// the plain buffered reader when readline cannot take the terminal.
func readPromptLine(prompt string) string {
	line, ok := readlineOnce(&readline.Config{Prompt: prompt})
	if ok {
		return line
	}
	fmt.Print(prompt)
	raw, _ := stdinReader.ReadString('\n')
	return sanitizeConsoleInput(raw)
}

// readlineOnce runs a single readline prompt. ok is false only when readline
// could not be started. Ctrl+C is re-raised as SIGINT once the terminal is
// restored so the active interrupt handler sees it.
func readlineOnce(cfg *readline.Config) (line string, ok bool) {
	rl, err := readline.NewEx(cfg)
	if err != nil {
		return "", false
	}
	line, err = rl.Readline()
	_ = rl.Close()
	stdinReader.Reset(os.Stdin)
	if errors.Is(err, readline.ErrInterrupt) {
		if p, findErr := os.FindProcess(os.Getpid()); findErr == nil {
			_ = p.Signal(os.Interrupt)
		}
		return "", true
	}
	if err != nil {
		return "", true
	}
	return strings.TrimSpace(line), true
}

func sanitizeConsoleInput(raw string) string {
	raw = ansiEscapeRE.ReplaceAllString(raw, "")
	raw = caretEscapeRE.ReplaceAllString(raw, "")
	raw = strings.Map(func(r rune) rune {
		if unicode.IsControl(r) {
			return -1
		}
		return r
	}, raw)
	return strings.TrimSpace(raw)
}

// surveySelect asks a survey Select and then drains stdin: terminals answer
// survey's cursor queries with CPR bytes that would land in the next prompt.
func surveySelect(q *survey.Select, response *string) error {
	defer drainStdin()
	return survey.AskOne(q, response)
}

// surveyMultiSelect is surveySelect for multi-choice prompts.
func surveyMultiSelect(q *survey.MultiSelect, response *[]string) error {
	defer drainStdin()
	return survey.AskOne(q, response)
}

// selectList is the state of an arrow-key list drawn in raw mode.
type selectList struct {
	items   []string
	message string
	sel     int
	offset  int
	height  int
}

const selectMaxVisible = 10

func newSelectList(items []string, defaultItem, message string) *selectList {
	l := &selectList{items: items, message: message, height: min(len(items), selectMaxVisible)}
	for i, it := range items {
		if it == defaultItem {
			l.sel = i
			break
		}
	}
	return l
}

// move shifts the selection by delta, wrapping at both ends.
func (l *selectList) move(delta int) {
	n := len(l.items)
	l.sel = ((l.sel+delta)%n + n) % n
	if l.sel < l.offset {
		l.offset = l.sel
	} else if l.sel >= l.offset+l.height {
		l.offset = l.sel - l.height + 1
	}
}

// lines is the number of terminal rows one draw occupies.
func (l *selectList) lines() int { return l.height + 2 }

func (l *selectList) draw(redraw bool) {
	if redraw {
		fmt.Printf("\033[%dA", l.lines())
	}
	fmt.Printf("\r  %s%s%s\033[K\r\n", clrBold, l.message, clrReset)
	for i := l.offset; i < l.offset+l.height; i++ {
		if i == l.sel {
			fmt.Printf("\r  %s❯ %s%s\033[K\r\n", clrCyan, l.items[i], clrReset)
		} else {
			fmt.Printf("\r    %s\033[K\r\n", l.items[i])
		}
	}
	footer := "↑↓ arrows · Enter"
	if len(l.items) > l.height {
		footer = fmt.Sprintf("%d/%d · %s", l.sel+1, len(l.items), footer)
	}
	fmt.Printf("\r  %s%s%s\033[K\r\n", clrDim, footer, clrReset)
}

// interactiveSelect shows items as an arrow-key list in raw mode and
// returns the chosen one. It sends no cursor queries, so back-to-back
// selects leave no stray bytes. Ctrl+C returns defaultItem.
func interactiveSelect(items []string, defaultItem, message string) string {
	if len(items) == 0 {
		return defaultItem
	}
	fd := int(os.Stdin.Fd())
	oldState, err := term.MakeRaw(fd)
	if err != nil {
		return selectFromList(items, defaultItem, message)
	}
	restore := func() {
		_ = term.Restore(fd, oldState)
		stdinReader.Reset(os.Stdin)
	}

	l := newSelectList(items, defaultItem, message)
	l.move(0)
	l.draw(false)

	buf := make([]byte, 8)
	for {
		n, err := os.Stdin.Read(buf)
		if err != nil || n == 0 {
			restore()
			return items[l.sel]
		}
		switch {
		case n == 1 && (buf[0] == '\r' || buf[0] == '\n'):
			restore()
			fmt.Printf("\033[%dA\r  %s❯%s %s %s%s%s\r\n\033[J", l.lines(), clrGreen, clrReset, message, clrCyan, items[l.sel], clrReset)
			return items[l.sel]
		case n == 1 && buf[0] == 3: // Ctrl+C
			restore()
			fmt.Print("\r\n")
			return defaultItem
		case n >= 3 && buf[0] == '\033' && buf[1] == '[' && buf[2] == 'A':
			l.move(-1)
			l.draw(true)
		case n >= 3 && buf[0] == '\033' && buf[1] == '[' && buf[2] == 'B':
			l.move(1)
			l.draw(true)
		}
	}
}

// selectFromList is the numbered-list fallback when raw mode is unavailable.
func selectFromList(items []string, defaultItem, label string) string {
	if len(items) == 0 {
		return defaultItem
	}
	def := 1
	fmt.Printf("  %s\n", label)
	for i, item := range items {
		marker := "  "
		if item == defaultItem {
			marker, def = "» ", i+1
		}
		fmt.Printf("   %s%d. %s\n", marker, i+1, item)
	}
	for {
		s := readPromptLine(fieldPromptText(fmt.Sprintf("Select [1-%d]", len(items)), strconv.Itoa(def)))
		if s == "" {
			return items[def-1]
		}
		if v, err := strconv.Atoi(s); err == nil && v >= 1 && v <= len(items) {
			return items[v-1]
		}
		fmt.Printf("  Must be a number between 1 and %d\n", len(items))
	}
}

// filePathCompleter completes filesystem paths for readline.
type filePathCompleter struct{}

func (filePathCompleter) Do(line []rune, pos int) ([][]rune, int) {
	typed := expandHome(string(line[:pos]))
	dir, partial := ".", ""
	switch {
	case typed == "":
	case strings.HasSuffix(typed, "/"):
		dir = typed
	default:
		dir, partial = filepath.Dir(typed), filepath.Base(typed)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, 0
	}
	var matches [][]rune
	for _, e := range entries {
		name, found := strings.CutPrefix(e.Name(), partial)
		if !found {
			continue
		}
		// readline inserts only the text after the cursor.
		if e.IsDir() {
			name += "/"
		}
		matches = append(matches, []rune(name))
	}
	return matches, len([]rune(partial))
}

// readFilePath reads a path with Tab completion. "~" is expanded.
func readFilePath(field, current string) string {
	line, ok := readlineOnce(&readline.Config{
		Prompt:       fieldPromptText(field, current),
		AutoComplete: filePathCompleter{},
	})
	if !ok {
		return readLine(field, current)
	}
	if line == "" {
		return current
	}
	return expandHome(line)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, _ := os.UserHomeDir()
	return home + p[1:]
}
