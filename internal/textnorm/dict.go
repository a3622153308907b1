package textnorm

// symbolWords maps symbols the voice engine cannot read to spoken
// equivalents. Applied after HTML entity decoding so "&amp;" lands here too.
var symbolWords = map[string]string{
	"&": "アンド",
	"＆": "アンド",
	"%": "パーセント",
	"％": "パーセント",
	"+": "プラス",
	"＋": "プラス",
	"=": "イコール",
	"＝": "イコール",
	"~": "から",
	"〜": "から",
	"→": "から",
}

// katakanaWords maps English tech vocabulary to katakana readings. Lookup is
// per word token, case-insensitive, so longer tokens always win over their
// prefixes.
var katakanaWords = map[string]string{
	// people
	"musk":       "マスク",
	"elon":       "イーロン",
	"sam":        "サム",
	"altman":     "オルトマン",
	"satya":      "サティア",
	"nadella":    "ナデラ",
	"jensen":     "イェンセン",
	"huang":      "ファン",
	"demis":      "デミス",
	"hassabis":   "ハサビス",
	"zuckerberg": "ザッカーバーグ",
	"cook":       "クック",
	"tim":        "ティム",
	"gates":      "ゲイツ",
	"jobs":       "ジョブズ",

	// companies
	"nvidia":    "エヌビディア",
	"openai":    "オープンエーアイ",
	"anthropic": "アンソロピック",
	"google":    "グーグル",
	"microsoft": "マイクロソフト",
	"amazon":    "アマゾン",
	"meta":      "メタ",
	"apple":     "アップル",
	"tesla":     "テスラ",
	"spacex":    "スペースエックス",
	"twitter":   "ツイッター",
	"facebook":  "フェイスブック",
	"tiktok":    "ティックトック",
	"samsung":   "サムスン",
	"intel":     "インテル",
	"qualcomm":  "クアルコム",
	"sony":      "ソニー",
	"nintendo":  "ニンテンドー",

	// tech terms
	"algorithm":   "アルゴリズム",
	"neural":      "ニューラル",
	"network":     "ネットワーク",
	"interface":   "インターフェース",
	"platform":    "プラットフォーム",
	"framework":   "フレームワーク",
	"database":    "データベース",
	"server":      "サーバー",
	"client":      "クライアント",
	"browser":     "ブラウザ",
	"software":    "ソフトウェア",
	"hardware":    "ハードウェア",
	"security":    "セキュリティ",
	"privacy":     "プライバシー",
	"digital":     "デジタル",
	"quantum":     "クォンタム",
	"robotics":    "ロボティクス",
	"assistant":   "アシスタント",
	"chatbot":     "チャットボット",
	"transformer": "トランスフォーマー",
	"attention":   "アテンション",
	"parameter":   "パラメータ",
	"training":    "トレーニング",
	"prompt":      "プロンプト",
	"token":       "トークン",
	"embedding":   "エンベディング",
	"vector":      "ベクトル",
	"model":       "モデル",
	"machine":     "マシン",
	"deep":        "ディープ",
	"learning":    "ラーニング",
	"computing":   "コンピューティング",
	"benchmark":   "ベンチマーク",
	"context":     "コンテキスト",
	"cloud":       "クラウド",
	"open":        "オープン",
	"source":      "ソース",

	// acronyms with irregular readings
	"gpu":  "ジーピーユー",
	"cpu":  "シーピーユー",
	"api":  "エーピーアイ",
	"sdk":  "エスディーケー",
	"ai":   "エーアイ",
	"agi":  "エージーアイ",
	"llm":  "エルエルエム",
	"gpt":  "ジーピーティー",
	"nlp":  "エヌエルピー",
	"iot":  "アイオーティー",
	"wifi": "ワイファイ",
	"usb":  "ユーエスビー",
	"ui":   "ユーアイ",
	"ux":   "ユーエックス",
	"vr":   "ブイアール",
	"ar":   "エーアール",
	"5g":   "ファイブジー",
	"4g":   "フォージー",
	"fp64": "エフピーろくよん",
	"fp16": "エフピーじゅうろく",
	"x86":  "エックスはちじゅうろく",
}

// letterReadings spells unknown uppercase acronyms letter by letter. Letter
// names are exact readings, not guesses, so this is safe where full-word
// phonetic synthesis would not be.
var letterReadings = map[rune]string{
	'a': "エー", 'b': "ビー", 'c': "シー", 'd': "ディー", 'e': "イー",
	'f': "エフ", 'g': "ジー", 'h': "エイチ", 'i': "アイ", 'j': "ジェー",
	'k': "ケー", 'l': "エル", 'm': "エム", 'n': "エヌ", 'o': "オー",
	'p': "ピー", 'q': "キュー", 'r': "アール", 's': "エス", 't': "ティー",
	'u': "ユー", 'v': "ブイ", 'w': "ダブリュー", 'x': "エックス",
	'y': "ワイ", 'z': "ゼット",
	'0': "ゼロ", '1': "ワン", '2': "ツー", '3': "スリー", '4': "フォー",
	'5': "ファイブ", '6': "シックス", '7': "セブン", '8': "エイト", '9': "ナイン",
}
