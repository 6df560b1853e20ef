package core

// DefaultCategories returns the fallback categories used when none are persisted.
func DefaultCategories() []Category {
	return []Category{
		{ID: "food", Name: "Alimentação", Color: "#ff6b6b", Icon: "🍽️"},
		{ID: "transport", Name: "Transporte", Color: "#4ecdc4", Icon: "🚗"},
		{ID: "entertainment", Name: "Entretenimento", Color: "#45b7d1", Icon: "🎬"},
		{ID: "shopping", Name: "Compras", Color: "#f9ca24", Icon: "🛍️"},
		{ID: "health", Name: "Saúde", Color: "#6c5ce7", Icon: "🏥"},
		{ID: "education", Name: "Educação", Color: "#a29bfe", Icon: "📚"},
		{ID: "bills", Name: "Contas", Color: "#fd79a8", Icon: "📄"},
		{ID: "other", Name: "Outros", Color: "#636e72", Icon: "📦"},
		{ID: "farmacia", Name: "Farmácia", Color: "#a29bfe", Icon: "🏥"},
		{ID: "gas", Name: "Gasolina", Color: "#fd79a8", Icon: "📄"},
		{ID: "vest", Name: "Vestuário", Color: "#636e72", Icon: "📦"},
	}
}
