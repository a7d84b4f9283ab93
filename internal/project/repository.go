package project

import "context"

type Repository interface {
	Create(ctx context.Context, p *Project) error
	Get(ctx context.Context, id string) (*Project, error)
	// List returns projects owned by or shared with memberID, or every project
	// when memberID is empty.
	List(ctx context.Context, memberID string, limit, offset int) ([]*Project, int, error)
	Update(ctx context.Context, p *Project) error
	Delete(ctx context.Context, id string) error
}

func (p *Project) HasMember(userID string) bool {
	if p.OwnerID == userID {
		return true
	}
	for _, id := range p.TeamMemberIDs {
		if id == userID {
			return true
		}
	}
	return false
}
