package memory

// extractionPrompt asks the model to turn a session transcript into a JSON
// list of memory objects. The response contract is parsed by
// parseExtraction; fenced code blocks around the JSON are tolerated.
const extractionPrompt = `Analyze this conversation and extract key facts, preferences, and important information about the user.
Focus on:
- personal preferences
- important facts about the user
- context that would be useful to remember in future conversations

Conversation:
%s

Return the extracted information as a JSON list of memory objects, each with:
- "fact": the specific fact or preference
- "context": brief context about when/how this was mentioned
- "importance": score 1-10 of how important this is to remember

If the conversation contains nothing worth remembering, return an empty JSON list.
Return only valid JSON, no other text.`

// rankingPrompt asks the model to select the most relevant stored memories
// for a query. The fact list is interpolated as pretty-printed JSON.
const rankingPrompt = `Given this query: %q

Find the most relevant memories from this list:
%s

Return a JSON list of the most relevant memories (max %d), ordered by relevance.
Include the original memory objects with an additional "relevance_score" field (1-10).

Return only valid JSON, no other text.`
