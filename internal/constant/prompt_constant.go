package constant

// Prompt templates for the LLM-backed collaborator stages. Every template
// that expects structured output instructs the model to answer with raw
// JSON; the caller still strips code fences before parsing.

const (
	// TargetProfilePromptV1 turns a fetched scholarship page into a
	// structured profile. Slots: page text.
	TargetProfilePromptV1 = `Extract a structured profile of this scholarship from the page text below.

Respond ONLY with JSON in this exact shape:
{"name": "...", "organization": "...", "summary": "...", "requirements": ["...", "..."]}

Page text:
%s`

	// DeriveCriteriaPromptV1 produces the weighted criteria set plus the
	// presentation hints. Weights must sum to 1.0. Slots: target text.
	DeriveCriteriaPromptV1 = `You are evaluating what a scholarship committee looks for.

From the scholarship description below, derive 3 to 6 evaluation criteria.
Each criterion gets a name, a one-sentence description, and a weight.
Weights are between 0.0 and 1.0 and MUST sum to exactly 1.0.
Also suggest a writing tone for application materials and a short prompt
to ask the applicant when their background is thin on some criterion.

Respond ONLY with JSON in this exact shape:
{"criteria": [{"name": "...", "description": "...", "weight": 0.0}], "tone": "...", "gap_prompt": "..."}

Scholarship description:
%s`

	// GapQuestionPromptV1 phrases one question covering every gap.
	// Slots: scholarship name, comma-joined gap names, base prompt.
	GapQuestionPromptV1 = `An applicant to the scholarship "%s" has little evidence for these criteria: %s.

Write ONE friendly question asking the applicant to describe relevant
experience for those areas. Base it on this prompt: %s

Respond with the question text only, no preamble, no JSON.`

	// TalkingPointsPromptV1 asks for concrete talking points. Slots:
	// scholarship name, criteria block, per-criterion score block.
	TalkingPointsPromptV1 = `You are helping an applicant prepare for the scholarship "%s".

Criteria:
%s

The applicant's fit per criterion (0.0 to 1.0):
%s

Write 4 to 7 specific talking points the applicant should emphasize,
leading with their strongest criteria.

Respond ONLY with JSON in this exact shape:
{"points": ["...", "..."]}`

	// EssayPromptV1 drafts the application essay. Slots: scholarship name,
	// tone, criteria block, personal background text, supplemental answers
	// block (may be empty).
	EssayPromptV1 = `Write a scholarship application essay for "%s".

Tone: %s

The committee evaluates these criteria:
%s

Applicant background:
%s

%s
Ground every claim in the applicant background above. Do not invent
achievements. 400 to 600 words.

Respond ONLY with JSON in this exact shape:
{"content": "...", "notes": "one sentence on what to personalize further"}`
)
