package realtime

import (
	"math/rand/v2"
	"strings"
	"time"
)

// loremWords is the vocabulary for simulated assistant replies.
var loremWords = []string{
	"lorem", "ipsum", "dolor", "sit", "amet", "consectetur", "adipiscing", "elit",
	"sed", "do", "eiusmod", "tempor", "incididunt", "ut", "labore", "et", "dolore",
	"magna", "aliqua", "enim", "ad", "minim", "veniam", "quis", "nostrud",
	"exercitation", "ullamco", "laboris", "nisi", "aliquip", "ex", "ea", "commodo",
	"consequat", "duis", "aute", "irure", "in", "reprehenderit", "voluptate",
	"velit", "esse", "cillum", "fugiat", "nulla", "pariatur", "excepteur", "sint",
	"occaecat", "cupidatat", "non", "proident", "sunt", "culpa", "qui", "officia",
	"deserunt", "mollit", "anim", "id", "est", "laborum", "at", "vero", "eos",
	"accusamus", "accusantium", "doloremque", "laudantium", "totam", "rem",
	"aperiam", "eaque", "ipsa", "quae", "ab", "illo", "inventore", "veritatis",
	"quasi", "architecto", "beatae", "vitae", "dicta", "explicabo",
	"nemo", "ipsam", "voluptatem", "quia", "voluptas", "aspernatur", "aut",
	"odit", "fugit", "consequuntur", "magni", "dolores", "ratione",
	"sequi", "nesciunt", "neque", "porro", "quisquam", "dolorem",
}

const (
	replyMinWords = 50
	replyMaxWords = 200
)

// chatMessage is the wire shape of every chat frame, both the echoed user
// message and the streamed assistant reply.
type chatMessage struct {
	Message    string    `json:"message"`
	Sender     string    `json:"sender"`
	Timestamp  time.Time `json:"timestamp"`
	IsComplete bool      `json:"is_complete"`
}

// generateReply builds the simulated assistant answer: a fixed greeting
// naming the caller, the caller's message echoed back, then 50-200 lorem
// words.
func generateReply(displayName, userMessage string) string {
	n := replyMinWords + rand.IntN(replyMaxWords-replyMinWords+1)
	words := make([]string, n)
	for i := range words {
		words[i] = loremWords[rand.IntN(len(loremWords))]
	}
	return "Excellent question " + displayName + ", " + userMessage + ", " + strings.Join(words, " ")
}

// typingDelay returns the pause before the next word of a streamed reply,
// uniform in [50ms, 150ms].
func typingDelay() time.Duration {
	return time.Duration(50+rand.IntN(101)) * time.Millisecond
}
