package command

import (
	"context"
	"fmt"
)

// ModelRequest is a single-turn completion request to the tutor model.
type ModelRequest struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// TutorModel generates tutor responses. Implemented by the Groq client;
// tests substitute a stub.
type TutorModel interface {
	Complete(ctx context.Context, req ModelRequest) (string, error)
}

// Generation settings per tutor task.
const (
	chatMaxTokens    = 600
	chatTemperature  = 0.7
	grammarMaxTokens = 400
	grammarTemp      = 0.5
	vocabMaxTokens   = 500
	vocabTemperature = 0.6
)

func chatSystemPrompt() string {
	return "You are LinguaSpark, a friendly and expert language teacher who corrects mistakes gently."
}

func chatPrompt(text, userLang, targetLang string) string {
	return fmt.Sprintf(`You are LinguaSpark, an expert language teacher AI.

User's message: "%s"
User's language: %s
Target language to learn: %s

Your task:
1. **Translate** the message to %s
2. **Check grammar** - if there are mistakes in the user's %s, gently correct them
3. **Explain** the translation in a friendly way
4. **Provide examples** (1-2 simple ones)
5. **Teach vocabulary** - highlight key words and their meanings
6. **Give pronunciation tips** if helpful
7. **Encourage** the learner

Format your response like this:
📝 Translation: [translation here]
✅ Grammar: [if mistakes, show correction, else say "Perfect!"]
💡 Explanation: [explain the translation]
📚 Key Vocabulary: [list 2-3 important words with meanings]
🗣️ Pronunciation: [tips if needed]

Keep it concise (3-4 paragraphs max) and engaging!`,
		text, userLang, targetLang, targetLang, userLang)
}

func grammarSystemPrompt(language string) string {
	return fmt.Sprintf("You are a %s grammar teacher.", language)
}

func grammarPrompt(text, language string) string {
	return fmt.Sprintf(`You are a %s grammar expert.

Analyze this sentence: "%s"

Provide:
1. **Corrections** - List all grammar mistakes
2. **Corrected Version** - Show the correct sentence
3. **Explanation** - Explain why it was wrong (in simple terms)
4. **Tips** - Give 1-2 tips to avoid this mistake

If the sentence is perfect, say so and praise the user!

Keep it short and encouraging.`, language, text)
}

func vocabSystemPrompt(language string) string {
	return fmt.Sprintf("You are a %s vocabulary teacher.", language)
}

func vocabPrompt(word, language string) string {
	return fmt.Sprintf(`You are a %s vocabulary expert.

Explain the word: "%s"

Provide:
1. **Meaning** - Simple definition
2. **Part of Speech** - (noun, verb, adjective, etc.)
3. **Example Sentences** - Give 3 simple examples
4. **Synonyms** - List 2-3 similar words
5. **Common Phrases** - Show 2 common phrases using this word
6. **Pronunciation** - How to pronounce it

Make it simple and easy to understand!`, language, word)
}
