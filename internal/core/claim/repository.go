package claim

import "context"

// Repository は請求永続化の抽象です。削除操作は持ちません。
type Repository interface {
	Create(ctx context.Context, c *Claim) (*Claim, error)
	FindByID(ctx context.Context, id int64) (*Claim, error)
	FindByStatus(ctx context.Context, status Status) ([]*Claim, error)
	FindBySubmitter(ctx context.Context, email string) ([]*Claim, error)
	// ListAll は提出日時の降順で返します。limit が 0 以下なら全件です。
	ListAll(ctx context.Context, limit int) ([]*Claim, error)
	// Save は保存済みの状態が expected と一致する場合に限り status と notes を更新します。
	// 一致しない場合は ErrConflict を返します。
	Save(ctx context.Context, c *Claim, expected Status) (*Claim, error)
	AttachDocument(ctx context.Context, id int64, fileName, filePath string) (*Claim, error)
}
