package engine

import "fmt"

// Avatar emotion tags. The presentation layer maps these to whatever
// face or voice it has.
const (
	EmotionHappy       = "happy"
	EmotionSad         = "sad"
	EmotionThinking    = "thinking"
	EmotionEncouraging = "encouraging"
	EmotionExcited     = "excited"
	EmotionNeutral     = "neutral"
	EmotionTalking     = "talking"
)

var encouragements = []string{
	"Bravo! Exact așa!",
	"Corect! Ești pe drumul cel bun!",
	"Super! Ai nimerit-o!",
	"Foarte bine! Mergem mai departe!",
}

var tryAgainMessages = []string{
	"Nu-i nimic, mai încearcă o dată!",
	"Aproape! Hai să mai gândim puțin.",
	"Nu e răspunsul corect, dar nu renunța!",
}

var hintFallbacks = []string{
	"Citește enunțul încă o dată, cu voce tare.",
	"Gândește-te la exemplul din lecție.",
	"Împarte problema în pași mici.",
}

// pick rotates through a message list so the avatar does not repeat
// itself on every answer.
func pick(list []string, n int) string {
	return list[n%len(list)]
}

func tierUpMessage(tier int) string {
	return fmt.Sprintf("Fantastic! Trecem la nivelul %d, exerciții mai dificile!", tier)
}

func tierDownMessage(tier int) string {
	return fmt.Sprintf("Hai să consolidăm nivelul %d, ne pregătim mai bine!", tier)
}

const (
	msgPause       = "Lecția e în pauză. Apasă Continuă când ești gata!"
	msgResume      = "Bine ai revenit! Continuăm!"
	msgPretest     = "Începem cu un mini-test rapid. Câteva întrebări!"
	msgPractice    = "Acum exersăm împreună. Începe cu primul exercițiu!"
	msgPosttest    = "Gata! Facem un test scurt de final."
	msgWarmupDone  = "Bine! Încălzire gata. Acum trecem la lecția de azi!"
	msgPretestSkip = "Super! Se pare că știi deja baza. Facem o recapitulare scurtă și trecem la exerciții mai grele."
	msgReteach     = "Ai răspuns greșit de trei ori. Hai să revedem lecția dintr-un alt unghi!"
	msgQuizRetry   = "Ok, hai să mai luăm o dată cu un exemplu simplu."
	msgPassed      = "Felicitări! Ai trecut lecția!"
	msgNotPassed   = "Bun efort! Mai exersăm puțin și data viitoare va fi mai ușor!"
)

func warmupMessage(n int) string {
	return fmt.Sprintf("Jocul de Încălzire! Hai să recapitulăm %d exerciții din lecțiile anterioare înainte să începem ceva nou.", n)
}

func introMessage(title string) string {
	return fmt.Sprintf("Astăzi învățăm: %s.", title)
}

func taskMessage(firstLine string) string {
	return fmt.Sprintf("Uite ce ai de făcut: %s Scrie pașii în spațiul de lucru, apoi pune răspunsul final.", firstLine)
}

func recapMessage(recap string) string {
	return fmt.Sprintf("Hai să revedem esențialul: %s. Încearcă din nou!", recap)
}

func citation(title string, chunkIdx int) string {
	return fmt.Sprintf("(din lecția «%s», partea %d)", title, chunkIdx+1)
}

func summaryMessage(pre, practice, post, avgSec, avgEdits float64, passed bool) string {
	msg := fmt.Sprintf(
		"Rezumat: Pre-test %.0f%%, Practică %.0f%%, Post-test %.0f%%.\nTimp mediu pe răspuns: %.1fs, editări medii: %.1f.\n",
		pre, practice, post, avgSec, avgEdits)
	if passed {
		return msg + msgPassed
	}
	return msg + msgNotPassed
}
