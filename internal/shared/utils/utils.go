package utils

// MaxOffset giới hạn OFFSET để (page-1)*limit không tràn số
const MaxOffset = 1<<31 - 1

// Paginate chuẩn hóa page/limit, trả về offset
func Paginate(page, limit, maxLimit int) (int, int, int) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}
	if limit > maxLimit {
		limit = maxLimit
	}
	if page-1 > MaxOffset/limit {
		page = MaxOffset/limit + 1
	}
	return page, limit, (page - 1) * limit
}
