package publish

// SynthesizeItems fills in pending placeholder items for every target the
// server has not yet reported, preserving target order. Items the server did
// report keep their position relative to the target list.
func SynthesizeItems(job *Job) {
	if job == nil || len(job.TargetAccountIDs) == 0 {
		return
	}
	merged := make([]Item, 0, len(job.TargetAccountIDs))
	for _, accountID := range job.TargetAccountIDs {
		if existing := job.ItemFor(accountID); existing != nil {
			merged = append(merged, *existing)
			continue
		}
		merged = append(merged, Item{AccountID: accountID, Status: StatusPending})
	}
	// Items for accounts outside the target list are kept at the tail rather
	// than dropped; the server is authoritative about what it ran.
	for _, item := range job.Items {
		if !containsID(job.TargetAccountIDs, item.AccountID) {
			merged = append(merged, item)
		}
	}
	job.Items = merged
}

// Merge reconciles a locally-held job against a freshly fetched server copy.
//
// Precedence: remote wins, except when the local item is further along the
// monotonic lifecycle than the remote one. That keeps placeholder items the
// server has not reported yet, and keeps a local terminal `failed` annotation
// (the request itself failed in transit) while the remote status for that
// item is still non-terminal, so an in-transit failure is never silently
// discarded. A remote terminal status always wins over a local annotation of
// equal rank.
//
// Neither input is mutated.
func Merge(local, remote *Job) *Job {
	if remote == nil {
		return local.Clone()
	}
	merged := remote.Clone()
	if local == nil {
		SynthesizeItems(merged)
		return merged
	}
	if len(merged.TargetAccountIDs) == 0 {
		merged.TargetAccountIDs = append([]int64(nil), local.TargetAccountIDs...)
	}
	if merged.Date == "" {
		merged.Date = local.Date
	}
	if merged.Content == "" {
		merged.Content = local.Content
	}
	SynthesizeItems(merged)

	for i := range merged.Items {
		localItem := local.ItemFor(merged.Items[i].AccountID)
		if localItem == nil {
			continue
		}
		remoteStatus := StatusPending
		if remoteItem := remote.ItemFor(merged.Items[i].AccountID); remoteItem != nil {
			remoteStatus = remoteItem.Status
		}
		if statusRank[localItem.Status] > statusRank[remoteStatus] {
			merged.Items[i] = *localItem
		}
	}
	return merged
}

func containsID(ids []int64, id int64) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
