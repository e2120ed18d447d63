package hooks

// SkillContent contains the SKILL.md file content for skillreflect.
const SkillContent = `---
name: skillreflect
description: This skill runs the reflection engine over finished sessions. Use when reviewing pending learnings, inspecting skill history, or resolving parked reflections.
---

# Skillreflect Reflection Engine

Scan session transcripts for corrections and decisions, evaluate them with
a model council, and fold accepted learnings into skill documents.

## Quick Reference

| Action | Command |
|--------|---------|
| Run pipeline | ` + "`skillreflect run --session <id>`" + ` |
| Preview only | ` + "`skillreflect run --session <id> --mode dry_run`" + ` |
| List pending | ` + "`skillreflect pending`" + ` |
| Resolve entry | ` + "`skillreflect resolve <fingerprint> --outcome applied`" + ` |
| Show history | ` + "`skillreflect history [--skill <name>]`" + ` |
| List skills | ` + "`skillreflect skills list`" + ` |
| Inspect skill | ` + "`skillreflect skills show <name>`" + ` |

## How It Works

1. The Stop hook triggers ` + "`skillreflect run`" + ` when a session ends.
2. Corrections, repeated patterns, and key decisions become signals.
3. A council of models proposes a target skill, change, and confidence.
4. High confidence changes auto-apply; the rest park as pending_review.
5. Every resolution is recorded in the dedup ledger, so a signal is never
   re-analyzed once it has an outcome.

## Resolving Pending Entries

` + "```bash" + `
skillreflect pending                      # See what awaits review
skillreflect resolve <fp> --outcome applied --reviewer <you>
skillreflect resolve <fp> --outcome rejected_by_reviewer --reviewer <you>
skillreflect resolve <fp> --outcome skipped_low_confidence --reviewer <you>
` + "```" + `

Resolving to applied folds the stored proposal into the target skill
document and bumps its version.

## Notes

- Dry runs write nothing; the next real run reprocesses everything.
- NEW_SKILL proposals are recorded as skipped; creating a skill from
  scratch is a human decision.
- Use ` + "`--skill <name>`" + ` on run to restrict applies to one skill.
`
