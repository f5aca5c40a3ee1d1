// Package classifier spots small talk so it can be answered without the
// retrieval and model round trip.
package classifier

import (
	"regexp"
	"strings"
)

type Category string

const (
	Identity   Category = "identity"
	Wellbeing  Category = "wellbeing"
	Capability Category = "capability"
	Greeting   Category = "greeting"
	Generic    Category = "generic"
)

// Rule maps a pattern to the category of canned reply it selects. A
// ReplyOnly rule never flags a message on its own; it only picks the reply
// for a message some other rule flagged.
type Rule struct {
	Pattern   *regexp.Regexp
	Category  Category
	ReplyOnly bool
}

// Classifier checks messages against an ordered rule list. The first
// matching rule picks the category.
type Classifier struct {
	rules    []Rule
	fallback Category
	replies  map[Category]string
}

var defaultReplies = map[Category]string{
	Identity:   "I'm an AI tutor specializing in Physical AI and Humanoid Robotics. I can help you understand concepts from the textbook. What would you like to learn about Physical AI or Humanoid Robotics?",
	Wellbeing:  "I'm functioning well, thank you! I'm here to help you learn about Physical AI and Humanoid Robotics. Would you like to explore a concept from the textbook?",
	Capability: "I can explain concepts about Physical AI and Humanoid Robotics based on the textbook. Ask me anything about these topics!",
	Greeting:   "Hello! I'm an AI tutor for Physical AI and Humanoid Robotics. I can help you understand concepts from the textbook. What would you like to learn?",
	Generic:    "I'm an AI assistant specialized in Physical AI and Humanoid Robotics. I can only provide information from the textbook content. What would you like to know about Physical AI or Humanoid Robotics?",
}

// DefaultRules returns the built-in rule list. The broad provenance terms
// (created, developed, built, made) and the bare "hi"/"hey" match inside
// longer words and domain questions too. A bare "purpose" selects the
// capability reply but does not flag a message by itself.
func DefaultRules() []Rule {
	groups := []struct {
		category  Category
		patterns  []string
		replyOnly bool
	}{
		{Identity, []string{`who are you`, `what are you`, `introduce yourself`, `tell me about yourself`}, false},
		{Wellbeing, []string{`how are you`}, false},
		{Capability, []string{`what can you do`, `what do you do`, `what is your purpose`}, false},
		{Capability, []string{`purpose`}, true},
		{Greeting, []string{`hello`, `hi`, `hey`, `good morning`, `good afternoon`, `good evening`, `greetings`}, false},
		{Generic, []string{
			`what is your job`, `how does this work`, `what is this`, `what is your name`, `your name`,
			`are you human`, `are you real`, `what are you made of`, `what language are you`,
			`created`, `developed`, `built`, `made`,
		}, false},
	}

	var rules []Rule
	for _, g := range groups {
		for _, p := range g.patterns {
			rules = append(rules, Rule{Pattern: regexp.MustCompile(p), Category: g.category, ReplyOnly: g.replyOnly})
		}
	}
	return rules
}

// New builds a classifier over rules. Messages that match a rule whose
// category has no reply get the fallback reply.
func New(rules []Rule, fallback Category, replies map[Category]string) *Classifier {
	if replies == nil {
		replies = defaultReplies
	}
	return &Classifier{
		rules:    rules,
		fallback: fallback,
		replies:  replies,
	}
}

// Default returns the classifier used by the chat service.
func Default() *Classifier {
	return New(DefaultRules(), Generic, defaultReplies)
}

// Classify reports whether message is flagged by a rule and, if so, the
// category of the first rule matching it.
func (c *Classifier) Classify(message string) (Category, bool) {
	normalized := strings.ToLower(strings.TrimSpace(message))

	category, flagged := Category(""), false
	for _, rule := range c.rules {
		if !rule.Pattern.MatchString(normalized) {
			continue
		}
		if category == "" {
			category = rule.Category
		}
		if !rule.ReplyOnly {
			flagged = true
			break
		}
	}
	if !flagged {
		return "", false
	}
	return category, true
}

// IsGeneral reports whether message is small talk.
func (c *Classifier) IsGeneral(message string) bool {
	_, ok := c.Classify(message)
	return ok
}

// Reply returns the canned answer for message.
func (c *Classifier) Reply(message string) string {
	category, ok := c.Classify(message)
	if !ok {
		category = c.fallback
	}
	if reply, ok := c.replies[category]; ok {
		return reply
	}
	return c.replies[c.fallback]
}
