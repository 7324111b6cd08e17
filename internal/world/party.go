package world

const MaxPartySize = 8

// Party 一個隊伍。SharedExpEnabled 是隊長開的開關；
// SharedExpActive 是目前是否真的符合共享條件（存活、距離），
// 兩者都為真時，擊殺經驗轉給隊長統一分配。
type Party struct {
	Leader           *Creature
	Members          []*Creature // 含隊長
	SharedExpEnabled bool
	SharedExpActive  bool
}

// PartyManager 管理所有隊伍。只在遊戲迴圈 goroutine 存取。
type PartyManager struct {
	memberParty    map[uint32]*Party // creatureID → party
	pendingInvites map[uint32]uint32 // 受邀者 → 邀請者
}

func NewPartyManager() *PartyManager {
	return &PartyManager{
		memberParty:    make(map[uint32]*Party),
		pendingInvites: make(map[uint32]uint32),
	}
}

// PartyOf 回傳生物所屬隊伍，沒有則 nil。
func (m *PartyManager) PartyOf(creatureID uint32) *Party {
	return m.memberParty[creatureID]
}

func (m *PartyManager) IsLeader(c *Creature) bool {
	p := m.memberParty[c.ID]
	return p != nil && p.Leader == c
}

// Invite 記下邀請。再次邀請覆蓋舊邀請。
func (m *PartyManager) Invite(inviter, target *Creature) {
	m.pendingInvites[target.ID] = inviter.ID
}

// AcceptInvite 受邀者接受：邀請者沒有隊伍就建新隊。回傳加入的隊伍。
func (m *PartyManager) AcceptInvite(target, inviter *Creature) *Party {
	if m.pendingInvites[target.ID] != inviter.ID {
		return nil
	}
	delete(m.pendingInvites, target.ID)

	p := m.memberParty[inviter.ID]
	if p == nil {
		p = &Party{Leader: inviter, Members: []*Creature{inviter}}
		m.memberParty[inviter.ID] = p
	}
	if len(p.Members) >= MaxPartySize {
		return nil
	}
	p.Members = append(p.Members, target)
	m.memberParty[target.ID] = p
	m.RefreshSharedExperience(p)
	return p
}

// RemoveMember 離隊。隊長離開時換最資深成員接手；剩一人就解散。
func (m *PartyManager) RemoveMember(c *Creature) {
	p := m.memberParty[c.ID]
	if p == nil {
		return
	}
	delete(m.memberParty, c.ID)
	for i, member := range p.Members {
		if member == c {
			p.Members = append(p.Members[:i], p.Members[i+1:]...)
			break
		}
	}
	if len(p.Members) <= 1 {
		m.dissolve(p)
		return
	}
	if p.Leader == c {
		p.Leader = p.Members[0]
	}
	m.RefreshSharedExperience(p)
}

func (m *PartyManager) dissolve(p *Party) {
	for _, member := range p.Members {
		delete(m.memberParty, member.ID)
	}
	p.Members = nil
	p.Leader = nil
}

// SetSharedExperience 隊長切換共享經驗。
func (m *PartyManager) SetSharedExperience(c *Creature, on bool) bool {
	p := m.memberParty[c.ID]
	if p == nil || p.Leader != c {
		return false
	}
	p.SharedExpEnabled = on
	m.RefreshSharedExperience(p)
	return true
}

// RefreshSharedExperience 成員變動後重新檢查共享條件。
func (m *PartyManager) RefreshSharedExperience(p *Party) {
	p.SharedExpActive = p.SharedExpEnabled && m.sharedExpQualifies(p)
}

// sharedExpQualifies 所有成員都活著、同樓層且在隊長附近才算數。
func (m *PartyManager) sharedExpQualifies(p *Party) bool {
	if p.Leader == nil {
		return false
	}
	for _, member := range p.Members {
		if member.Dead || member.Removed {
			return false
		}
		if member.Pos.Z != p.Leader.Pos.Z || !InViewRange(p.Leader.Pos, member.Pos, 30, 30) {
			return false
		}
	}
	return true
}
