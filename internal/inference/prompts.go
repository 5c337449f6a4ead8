package inference

import "fmt"

// systemPrompt pins the model to the standardized four-field JSON shape.
const systemPrompt = `You are a smart assistant that reads documents and returns structured JSON.
Return ONLY valid JSON with the following structure:
{
  "title": "string",
  "summary": "string",
  "key_points": ["point 1", "point 2", "point 3"],
  "quotes": ["quoted line 1", "quoted line 2"]
}

Rules:
- title: Extract the main title or create a descriptive title
- summary: Provide a concise summary of the document
- key_points: List 3-5 main points or takeaways
- quotes: Include 2-3 notable quotes or important statements from the document
- Return only valid JSON, no additional text or explanations`

func userPrompt(text string) string {
	return fmt.Sprintf("Please convert the following text to structured JSON:\n\n%s", text)
}
