package analytics

import (
	"regexp"
	"strconv"
	"strings"
)

// LinterIssue is one problem reported in a linter's output.
type LinterIssue struct {
	Type    string // Smell, cop or rule identifier
	Message string
	File    string // Empty when the output does not name a file
	Line    int
}

// Linter recognizes one linter's output inside a failing tool result and
// extracts the issues it reports.
type Linter struct {
	Name string
	// Pattern must match markers the linter actually prints, not just its name.
	Pattern *regexp.Regexp
	Extract func(text string) []LinterIssue
}

// Linters is the registry consulted by LinterLoopAnalyzer, in match order.
// Adding a linter is a matter of appending an entry here.
var Linters = []Linter{
	{
		Name:    "reek",
		Pattern: regexp.MustCompile(`(?i)(?:warning|smell|--\s+\d+\s+warning)`),
		Extract: extractReekIssues,
	},
	{
		Name:    "rubocop",
		Pattern: regexp.MustCompile(`(?i)(?:offenses? detected|C:|W:|E:|no offenses)`),
		Extract: extractCopIssues,
	},
	{
		Name:    "eslint",
		Pattern: regexp.MustCompile(`(?i)(?:\d+ problems?|\d+ errors?.*\d+ warnings?)`),
		Extract: extractESLintIssues,
	},
	{
		Name:    "prettier",
		Pattern: regexp.MustCompile(`(?i)(?:Code style issues found|Forgot to run Prettier)`),
		Extract: extractPrettierIssues,
	},
	{
		Name:    "ruff",
		Pattern: regexp.MustCompile(`(?i)(?:Found \d+ errors?|ruff check)`),
		Extract: extractRuffIssues,
	},
	{
		Name:    "standardrb",
		Pattern: regexp.MustCompile(`(?i)(?:standard.*offenses?)`),
		Extract: extractCopIssues,
	},
}

var (
	// [path:line]: SmellType: description
	reekSmellPattern = regexp.MustCompile(`\[([^\]]*?):(\d+)\]:\s+(\w+):\s+(.+)`)

	// Department/CopName: description
	copOffensePattern = regexp.MustCompile(`([A-Z]\w+/\w+):\s+(.+)`)
	// path:line:col: prefix that precedes a cop offense; rubocop adds a
	// severity letter ("C:"), standardrb does not
	copLocationPattern = regexp.MustCompile(`^\s*(\S+?):(\d+):\d+:(?:\s+[A-Z]:)?`)

	// "  12:5  error  Unexpected var  no-var"
	eslintRowPattern = regexp.MustCompile(`^\s+(\d+):\d+\s+(?:error|warning)\s+(.+?)\s{2,}(\S+)\s*$`)

	// path:line:col: CODE message
	ruffRowPattern = regexp.MustCompile(`^(\S+?):(\d+):\d+:\s+([A-Z]+\d+)\s+(.+)$`)

	// [warn] path
	prettierFilePattern = regexp.MustCompile(`^\[warn\]\s+(\S+)\s*$`)
)

// knownReekSmells is scanned when reek output carries no structured lines.
var knownReekSmells = []string{
	"FeatureEnvy", "TooManyStatements", "DuplicateMethodCall", "ControlParameter",
	"DataClump", "UncommunicativeVariableName", "UncommunicativeMethodName",
	"UncommunicativeModuleName", "UtilityFunction", "TooManyMethods",
	"LongParameterList", "BooleanParameter", "NilCheck", "InstanceVariableAssumption",
	"ManualDispatch", "NestedIterators", "RepeatedConditional", "TooManyInstanceVariables",
}

func extractReekIssues(text string) []LinterIssue {
	var issues []LinterIssue
	for _, m := range reekSmellPattern.FindAllStringSubmatch(text, -1) {
		line, _ := strconv.Atoi(m[2])
		issues = append(issues, LinterIssue{
			Type:    m[3],
			Message: strings.TrimSpace(m[4]),
			File:    m[1],
			Line:    line,
		})
	}
	if len(issues) > 0 {
		return issues
	}

	for _, smell := range knownReekSmells {
		if strings.Contains(text, smell) {
			issues = append(issues, LinterIssue{Type: smell, Message: smell})
		}
	}
	return issues
}

// extractCopIssues handles rubocop-style output, which standardrb shares.
func extractCopIssues(text string) []LinterIssue {
	var issues []LinterIssue
	for _, row := range strings.Split(text, "\n") {
		matches := copOffensePattern.FindAllStringSubmatch(row, -1)
		if len(matches) == 0 {
			continue
		}
		file, line := "", 0
		if loc := copLocationPattern.FindStringSubmatch(row); loc != nil {
			file = loc[1]
			line, _ = strconv.Atoi(loc[2])
		}
		for _, m := range matches {
			issues = append(issues, LinterIssue{
				Type:    m[1],
				Message: strings.TrimSpace(m[2]),
				File:    file,
				Line:    line,
			})
		}
	}
	return issues
}

// extractESLintIssues reads the default "stylish" formatter: a file header
// line followed by indented rows ending in the rule id.
func extractESLintIssues(text string) []LinterIssue {
	var issues []LinterIssue
	currentFile := ""
	for _, row := range strings.Split(text, "\n") {
		if m := eslintRowPattern.FindStringSubmatch(row); m != nil {
			line, _ := strconv.Atoi(m[1])
			issues = append(issues, LinterIssue{
				Type:    m[3],
				Message: strings.TrimSpace(m[2]),
				File:    currentFile,
				Line:    line,
			})
			continue
		}
		trimmed := strings.TrimSpace(row)
		if trimmed != "" && !strings.HasPrefix(row, " ") && !strings.HasPrefix(row, "\t") &&
			(strings.HasPrefix(trimmed, "/") || strings.HasPrefix(trimmed, ".")) {
			currentFile = trimmed
		}
	}
	return issues
}

func extractRuffIssues(text string) []LinterIssue {
	var issues []LinterIssue
	for _, row := range strings.Split(text, "\n") {
		m := ruffRowPattern.FindStringSubmatch(strings.TrimRight(row, "\r"))
		if m == nil {
			continue
		}
		line, _ := strconv.Atoi(m[2])
		issues = append(issues, LinterIssue{
			Type:    m[3],
			Message: strings.TrimSpace(m[4]),
			File:    m[1],
			Line:    line,
		})
	}
	return issues
}

// extractPrettierIssues reports one CodeStyle issue per file prettier
// flagged.
func extractPrettierIssues(text string) []LinterIssue {
	var issues []LinterIssue
	for _, row := range strings.Split(text, "\n") {
		m := prettierFilePattern.FindStringSubmatch(strings.TrimRight(row, "\r"))
		if m == nil {
			continue
		}
		issues = append(issues, LinterIssue{
			Type:    "CodeStyle",
			Message: "Code style issues found in " + m[1],
			File:    m[1],
		})
	}
	return issues
}
