package infrastructure

// ExtensionForMIME возвращает расширение ключа хранения по выходному MIME-типу.
// image/jpeg даёт "jpg", любой другой выходной тип "webp".
func ExtensionForMIME(mime string) string {
	switch mime {
	case "image/jpeg":
		return "jpg"
	default:
		return "webp"
	}
}
