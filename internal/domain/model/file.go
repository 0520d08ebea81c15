// Пакет model — доменные модели Media Store.
package model

import "time"

// FileRecord — запись метаданных одного принятого файла.
// Создаётся индексом после успешного завершения ingest-конвейера.
// После создания не изменяется и не удаляется.
type FileRecord struct {
	// ID — идентификатор записи, назначается индексом при вставке.
	// Монотонно растёт, никогда не переиспользуется.
	ID int64
	// Mime — MIME-тип оригинала, определённый по расширению имени файла
	Mime string
	// FullLocation — расположение оригинала в blob-хранилище (full/<имя>)
	FullLocation string
	// ThumbLocation — расположение превью в blob-хранилище (thumbnails/<имя>)
	ThumbLocation string
	// CreatedAt — время вставки записи (UTC), ключ сортировки листингов
	CreatedAt time.Time
}
