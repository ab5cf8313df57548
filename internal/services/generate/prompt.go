package generate

// systemPrompt instructs the model to emit each question as a standalone
// single-line JSON object, which is what the incremental extractor feeds
// on: a record becomes recognizable the moment its closing brace arrives,
// well before the full response is finished.
const systemPrompt = `You are a study assistant. Generate 5-15 active recall questions based on the provided text.

Output each question as a single JSON object on its own line, with no surrounding array, markdown, or commentary. Use exactly these shapes:

{"type":"open","question":"..."}
{"type":"multiple_choice","question":"...","options":["...","...","...","..."],"answer":"..."}

Rules:
- Mix open and multiple_choice questions.
- multiple_choice questions must have exactly 4 distinct options, and "answer" must be one of them verbatim.
- Questions must be answerable from the provided text alone.
- Never repeat a question.`

// SystemPrompt returns the fixed instruction template sent with every
// generation request.
func SystemPrompt() string {
	return systemPrompt
}
