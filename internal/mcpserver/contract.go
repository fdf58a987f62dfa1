package mcpserver

// PostFormatContract describes the post source format that LLM consumers
// should follow when drafting posts.
const PostFormatContract = `# Quire Post Format

Every post source file is plain text made of a header block, one blank
line, and a body.

## Structure

` + "```" + `text
Title: Human-readable title
Author: Ann Example
ID: 3f9a2c1b
Date: 2025-01-20
# Lines starting with "#" inside the header block are comments.

Body text. Everything after the first blank line is passed to the
renderer untouched, including lines that look like headers.
` + "```" + `

## Rules

1. **Header lines** are ` + "`" + `key: value` + "`" + `. The line is split at its first colon;
   key and value are trimmed and must both be non-empty. Later colons belong
   to the value (` + "`" + `Title: Part 2: the return` + "`" + `).
2. **Keys are case-insensitive** for lookup. When a key repeats, the first
   occurrence wins.
3. **Required headers** (default policy): ` + "`" + `title` + "`" + `, ` + "`" + `author` + "`" + `, ` + "`" + `id` + "`" + `, ` + "`" + `date` + "`" + `.
   Call ` + "`" + `validate_post` + "`" + ` to check a draft; missing keys are all reported at once.
4. **The header block ends** at the first blank line after a header. Blank
   lines before the first header are ignored.
5. **A non-header line** in the header block (no colon, empty key or empty
   value) makes the whole file invalid.
6. **Date** is ` + "`" + `YYYY-MM-DD` + "`" + `, optionally followed by ` + "`" + ` HH:MM` + "`" + ` or ` + "`" + ` HH:MM:SS` + "`" + `, or RFC 3339.
7. **ID** is a short unique token; the output page is named from the first
   three title words plus the id, e.g. ` + "`" + `weekly-standup-2025-01-20-3f9a2c1b.html` + "`" + `.
8. **Encoding** is UTF-8. CRLF line endings are accepted.

## Example

` + "```" + `text
Title: Weekly standup notes
Subtitle: What we shipped
Author: Alice
ID: 7c1e04aa
Date: 2025-01-20 09:30

# Weekly standup

Attendees: Alice, Bob.
` + "```" + `
`
