package entity

// DescriptionFallback は説明が登録されていないラベルに対して返す文字列です。
const DescriptionFallback = "Description not available."

// DefaultLabels はモデルが学習した5種のラベル（モデルの出力順）です。
var DefaultLabels = []string{
	"parasaurolophus",
	"spinosaurus",
	"stegosaurus",
	"triceratops",
	"tyrannosaurus-rex",
}

var descriptions = map[string]string{
	"parasaurolophus":   "Parasaurolophus was a herbivorous dinosaur with a distinctive long, curved crest on its head, used for display and communication.",
	"spinosaurus":       "Spinosaurus was a large, semi-aquatic dinosaur known for its elongated, sail-like structure on its back and a crocodile-like snout.",
	"stegosaurus":       "Stegosaurus was a herbivorous dinosaur characterized by its large bony plates along its back and the spikes on its tail, known as the thagomizer.",
	"triceratops":       "Triceratops was a herbivorous dinosaur with three distinctive facial horns and a large bony frill protecting its neck.",
	"tyrannosaurus-rex": "Tyrannosaurus Rex, often referred to as T. rex, was one of the largest and most fearsome carnivorous dinosaurs, known for its powerful jaws and tiny arms.",
}

// Describe はラベルに対応する説明文を返します。未登録の場合は DescriptionFallback を返します。
func Describe(label string) string {
	if d, ok := descriptions[label]; ok {
		return d
	}
	return DescriptionFallback
}

// HasDescription はラベルの説明文が登録されているかを返します。
func HasDescription(label string) bool {
	_, ok := descriptions[label]
	return ok
}
