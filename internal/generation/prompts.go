package generation

import (
	"fmt"
	"strings"
)

func studyPlanPrompt(req StudyPlanRequest) string {
	return fmt.Sprintf(`Create a detailed study plan for a student with the following details:
Subjects: %s
Study Duration: %d days
Learning Goals: %s
Learning Style: %s

Respond with JSON only, using this structure:
{
  "title": "Study Plan Title",
  "description": "Brief description of the study plan",
  "subjects": ["Subject1", "Subject2"],
  "schedule": [
    {
      "day": "Day 1",
      "tasks": [
        {"subject": "Subject name", "duration": 60, "description": "Task description"}
      ]
    }
  ]
}
The "duration" of a task is in minutes.`,
		strings.Join(req.Subjects, ", "), req.DurationDays, req.Goals, req.LearningStyle)
}

func explanationPrompt(req TopicRequest) string {
	return fmt.Sprintf(`Explain the following %s topic: %q

Make your explanation appropriate for a %s level student.
Learning style preference: %s

Include:
1. A clear definition
2. Main concepts
3. 2-3 examples
4. Common misconceptions
5. A simple analogy to help understand`,
		req.Subject, req.Topic, req.Difficulty, req.LearningStyle)
}

func questionsPrompt(req TopicRequest) string {
	return fmt.Sprintf(`Generate %d practice %s-level questions about %q in %s.

Respond with JSON only, using this structure:
{
  "questions": [
    {
      "question": "Question text",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correctAnswer": "Option B",
      "explanation": "Explanation of why this is the correct answer"
    }
  ]
}`,
		req.Count, req.Difficulty, req.Topic, req.Subject)
}

func flashcardsPrompt(req TopicRequest) string {
	return fmt.Sprintf(`Generate %d flashcards about %q in %s.

Respond with JSON only, using this structure:
{
  "flashcards": [
    {"front": "Front of flashcard with question or term", "back": "Back of flashcard with answer or definition"}
  ]
}`,
		req.Count, req.Topic, req.Subject)
}

func notesPrompt(req TopicRequest) string {
	return fmt.Sprintf(`Create comprehensive study notes about %q in %s.

Structure the notes for a %s learner with:
1. Key concepts
2. Definitions
3. Important formulas or principles
4. Examples
5. Practice problems if applicable

Format the response in Markdown.`,
		req.Topic, req.Subject, req.LearningStyle)
}

// ChatPreamble is the system turn that personalises the assistant for a student.
func ChatPreamble(name string, subjects []string, learningStyle string) string {
	return fmt.Sprintf(`You are an AI study assistant helping a student.
The student's name is %s.
They are studying these subjects: %s.
Their preferred learning style is %s.
Provide helpful, concise answers to their questions.
If they ask about a topic not in their subjects, you can still help them.`,
		name, strings.Join(subjects, ", "), learningStyle)
}
