package api

import "github.com/formpipe/formpipe/internal/services"

func toServiceForm(f *Form) *services.Form {
	if f == nil {
		return nil
	}
	return &services.Form{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		IsActive:    f.IsActive,
		StartAt:     f.StartAt,
		EndAt:       f.EndAt,
		CreatedBy:   f.CreatedBy,
		CreatedAt:   f.CreatedAt,
	}
}

func fromServiceForm(f *services.Form) *Form {
	if f == nil {
		return nil
	}
	return &Form{
		ID:          f.ID,
		Title:       f.Title,
		Description: f.Description,
		IsActive:    f.IsActive,
		StartAt:     f.StartAt,
		EndAt:       f.EndAt,
		CreatedBy:   f.CreatedBy,
		CreatedAt:   f.CreatedAt,
	}
}

func toServiceBlock(b *Block) *services.Block {
	if b == nil {
		return nil
	}
	return &services.Block{ID: b.ID, FormID: b.FormID, Title: b.Title, Order: b.Order}
}

func fromServiceBlock(b *services.Block) *Block {
	if b == nil {
		return nil
	}
	return &Block{ID: b.ID, FormID: b.FormID, Title: b.Title, Order: b.Order}
}

func toServiceBlocks(bs []*Block) []*services.Block {
	out := make([]*services.Block, 0, len(bs))
	for _, b := range bs {
		out = append(out, toServiceBlock(b))
	}
	return out
}

func toServiceQuestion(q *Question) *services.Question {
	if q == nil {
		return nil
	}
	return &services.Question{
		ID:       q.ID,
		FormID:   q.FormID,
		BlockID:  q.BlockID,
		Key:      q.Key,
		Label:    q.Label,
		Type:     services.QuestionType(q.Type),
		Options:  q.Options,
		Required: q.Required,
		Order:    q.Order,
	}
}

func fromServiceQuestion(q *services.Question) *Question {
	if q == nil {
		return nil
	}
	return &Question{
		ID:       q.ID,
		FormID:   q.FormID,
		BlockID:  q.BlockID,
		Key:      q.Key,
		Label:    q.Label,
		Type:     string(q.Type),
		Options:  q.Options,
		Required: q.Required,
		Order:    q.Order,
	}
}

func toServiceQuestions(qs []*Question) []*services.Question {
	out := make([]*services.Question, 0, len(qs))
	for _, q := range qs {
		out = append(out, toServiceQuestion(q))
	}
	return out
}

func toServiceResponse(r *Response) *services.Response {
	if r == nil {
		return nil
	}
	return &services.Response{
		ID:              r.ID,
		FormID:          r.FormID,
		DraftID:         r.DraftID,
		Anonymous:       r.Anonymous,
		RespondentName:  r.RespondentName,
		RespondentEmail: r.RespondentEmail,
		Need1on1:        r.Need1on1,
		PreferredDate:   r.PreferredDate,
		PreferredTime:   r.PreferredTime,
		Status:          services.Status(r.Status),
		CreatedAt:       r.CreatedAt,
		ReviewedBy:      r.ReviewedBy,
		ReviewedAt:      r.ReviewedAt,
	}
}

func fromServiceResponse(r *services.Response) *Response {
	if r == nil {
		return nil
	}
	return &Response{
		ID:              r.ID,
		FormID:          r.FormID,
		DraftID:         r.DraftID,
		Anonymous:       r.Anonymous,
		RespondentName:  r.RespondentName,
		RespondentEmail: r.RespondentEmail,
		Need1on1:        r.Need1on1,
		PreferredDate:   r.PreferredDate,
		PreferredTime:   r.PreferredTime,
		Status:          string(r.Status),
		CreatedAt:       r.CreatedAt,
		ReviewedBy:      r.ReviewedBy,
		ReviewedAt:      r.ReviewedAt,
	}
}

func toServiceResponses(rs []*Response) []*services.Response {
	out := make([]*services.Response, 0, len(rs))
	for _, r := range rs {
		out = append(out, toServiceResponse(r))
	}
	return out
}

func toServiceAnswer(a *Answer) *services.Answer {
	if a == nil {
		return nil
	}
	return &services.Answer{ID: a.ID, ResponseID: a.ResponseID, QuestionID: a.QuestionID, Value: a.Value}
}

func fromServiceAnswer(a *services.Answer) *Answer {
	if a == nil {
		return nil
	}
	return &Answer{ID: a.ID, ResponseID: a.ResponseID, QuestionID: a.QuestionID, Value: a.Value}
}

func toServiceAnswers(as []*Answer) []*services.Answer {
	out := make([]*services.Answer, 0, len(as))
	for _, a := range as {
		out = append(out, toServiceAnswer(a))
	}
	return out
}

func toServiceUser(u *User) *services.User {
	if u == nil {
		return nil
	}
	return &services.User{ID: u.ID, Email: u.Email, PassHash: u.PassHash, Role: u.Role, CreatedAt: u.CreatedAt}
}

func fromServiceAudit(e services.AuditEntry) AuditEntry {
	return AuditEntry{Time: e.Time, Actor: e.Actor, Action: e.Action, Target: e.Target, Note: e.Note}
}
