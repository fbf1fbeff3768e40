package repository

// Page aplica offset/limit sobre una lista ya filtrada y ordenada (limit <= 0 = sin límite).
// La usan los adaptadores que paginan en memoria: el almacén en proceso y los documentos
// embebidos de MongoDB.
func Page[T any](list []T, limit, offset int) []T {
	if offset >= len(list) {
		return []T{}
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list
}
