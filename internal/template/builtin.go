package template

// builtinOrder fixes the listing order of the builtin templates.
var builtinOrder = []string{"default", "one-on-one", "brainstorm", "standup", "client"}

var builtins = map[string]string{
	"default": `---
name: "General minutes"
description: "Standard meeting minutes format"
tags:
  - meeting
  - auto-generated
preamble: "General-purpose meeting. Capture the agenda, discussion, decisions, and action items."
---

# Minutes - {{date}}

## Overview

- **Date**: {{date}} {{time}} - {{end_time}}
- **Duration**: {{duration}}
- **Attendees**: (inferred from audio, or "unknown")

## Agenda

-

## Discussion

### Topic 1

-

## Decisions

- [ ]

## Action items

| Owner | Task | Due |
| ----- | ---- | --- |
|       |      |     |

## Next meeting

-

---

_Generated automatically ({{update_count}} updates)_
`,

	"one-on-one": `---
name: "One-on-one"
description: "Recurring one-on-one meeting"
tags:
  - meeting
  - one-on-one
preamble: "A one-on-one conversation. Separate work topics from growth and career topics, and capture agreed follow-ups."
---

# One-on-one - {{date}}

## Overview

- **Date**: {{date}} {{time}}
- **Attendees**:

## Progress since last time

-

## Topics

### Work

-

### Career and growth

-

### Blockers and concerns

-

## Next actions

| Owner | Action | Due |
| ----- | ------ | --- |
|       |        |     |

## Goals until next time

-

---

_Generated: {{datetime}}_
`,

	"brainstorm": `---
name: "Brainstorm"
description: "Idea generation session"
tags:
  - meeting
  - brainstorm
preamble: "A brainstorming session. Group ideas by theme, keep even half-formed ones, and highlight the promising candidates."
---

# Brainstorm - {{date}}

## Theme

-

## Participants

-

## Ideas

### Category 1

-

### Category 2

-

### Other

-

## Promising ideas

-

## Next steps

-

---

_Generated: {{datetime}}_
`,

	"standup": `---
name: "Standup"
description: "Daily standup"
tags:
  - meeting
  - standup
  - daily
preamble: "A daily standup. Record per-person yesterday/today/blockers, keep it terse."
---

# Daily standup - {{date}}

## Participants

-

## Updates

### Yesterday

-

### Today

-

### Blockers

-

## Notes

-

---

_Generated: {{datetime}}_
`,

	"client": `---
name: "Client meeting"
description: "External client meeting"
tags:
  - meeting
  - client
  - external
preamble: "A meeting with an external client. Distinguish agreements from open concerns and record who committed to what."
---

# Client meeting - {{date}}

## Overview

- **Date**: {{date}} {{time}} - {{end_time}}
- **Location**:
- **Attendees**:
  - Client:
  - Us:

## Agenda

1.

## Discussion

### Item 1

-

## Agreements

-

## Concerns and risks

-

## Action items

| Owner | Task | Due |
| ----- | ---- | --- |
|       |      |     |

## Next meeting

- Date:
- Agenda:

---

_Generated automatically_
`,
}
