package descriptions

import "sort"

// Tool descriptions with practical examples and use cases

const (
	FormExtractFileDescription = `Extract the configured fields from one form document without recording it.

**When to use:** Check what a document in the source folder would produce before it is processed, or find out why a field comes out empty.

**Why it's useful:** Shows the normalized text after symbol-font substitution, every label occurrence found, and the final record. Nothing is appended to the table and the document is not moved.

**Examples:**
• Preview a form: "Extract fields from 2024-03-intake.docx"
• Debug a checkbox: "Why is Gender empty in intake-17.docx?"

**Best practices:** Paths are resolved against the source folder; documents outside it are rejected.`

	FormPendingDescription = `List the documents waiting in the source folder.

**When to use:** See what the next batch will process, or confirm that a failed document is still waiting.

**Best practices:** Word lock files (~$name.docx) and files not matching the configured patterns are never listed.`

	FormStatusDescription = `Report harvesting progress.

**When to use:** Check how many documents were processed or failed, whether processing is paused, and the last error seen.

**Examples:**
• "How many forms have been recorded so far?"
• "Did the last save of the table fail?"`

	FormPauseDescription = `Pause processing before the next document.

**When to use:** Stop the harvester from picking up documents while the source folder is being reorganized or the output table is open in a spreadsheet program.

**Best practices:** A document already being read is finished first. Use form_resume to continue.`

	FormResumeDescription = `Resume processing after form_pause.`

	FormProcessNowDescription = `Process every pending document immediately.

**When to use:** Run a batch without waiting for the next folder change or poll interval.

**Common workflows:**
1. Drop documents into the source folder → form_pending → form_process_now → form_status
2. Preview with form_extract_file → adjust the configuration → form_process_now

**Best practices:** Fails while processing is paused. Processed documents are moved to the backup folder; failed ones stay in place.`
)

// ToolDescriptions maps tool names to their descriptions
var ToolDescriptions = map[string]string{
	"form_extract_file": FormExtractFileDescription,
	"form_pending":      FormPendingDescription,
	"form_status":       FormStatusDescription,
	"form_pause":        FormPauseDescription,
	"form_resume":       FormResumeDescription,
	"form_process_now":  FormProcessNowDescription,
}

// GetToolDescription returns the description for a tool
func GetToolDescription(toolName string) string {
	if desc, exists := ToolDescriptions[toolName]; exists {
		return desc
	}
	return "Tool description not available"
}

// GetAllToolNames returns the names of all tools, sorted
func GetAllToolNames() []string {
	names := make([]string, 0, len(ToolDescriptions))
	for name := range ToolDescriptions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
