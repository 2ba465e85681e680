package feedscope

// SampleQuestions are example questions shown to new users.
var SampleQuestions = []string{
	"What are the camera IDs capturing the Pacific area with the best clarity?",
	"Show me all 4K cameras in the Pacific region",
	"Which cameras have the lowest latency for real-time monitoring?",
	"Find encrypted feeds with H265 codec and high frame rates",
	"What's the best quality camera for surveillance in Europe?",
	"Show me all civilian-safe cameras in the Middle East",
	"Which cameras use the Viper-VL analytics model?",
	"Find all cameras with latency under 200ms",
}
