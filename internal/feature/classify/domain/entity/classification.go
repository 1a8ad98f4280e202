package entity

// Classification は信頼度判定を通過した後の表示用の結果です。
// Confident が false の場合、Label・ConfidenceText・Description は空で Message のみが表示対象になります。
type Classification struct {
	Preview        *NormalizedImage // 表示用の224x224画像
	Confident      bool             // 閾値を超えたかどうか
	Label          string           // 予測ラベル（Confident時のみ）
	ConfidenceText string           // "92.00%" 形式の信頼度（Confident時のみ）
	Description    string           // 恐竜の説明文（Confident時のみ）
	Message        string           // 信頼度不足時の固定メッセージ
}

// SpeciesInfo はモデルが識別できる種とその説明です。
type SpeciesInfo struct {
	Label       string
	Description string
}
