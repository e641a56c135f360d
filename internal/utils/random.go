package utils

import (
	"fmt"
	"math/rand"
	"slices"

	"github.com/mozillazg/go-pinyin"
	"github.com/sysu-ecnc-dev/task-planner/backend/internal/domain"
	"golang.org/x/crypto/bcrypt"
)

var commonSurnames = []string{
	"王", "李", "张", "刘", "陈", "杨", "赵", "黄", "周", "吴",
	"徐", "孙", "胡", "朱", "高", "林", "何", "郭", "马", "罗",
}
var commonNameCharacters = []string{
	"伟", "强", "芳", "敏", "静", "丽", "刚", "杰", "娟", "勇",
	"艳", "涛", "明", "军", "磊", "洋", "勇", "霞", "飞", "玲",
	"超", "华", "平", "辉", "梅", "鑫", "龙", "鹏", "玉", "斌",
	"庆", "建", "丹", "彬", "凤", "旭", "宁", "乐", "成", "欣",
}

// Skills 是随机数据中使用的技能池
var Skills = []string{"python", "go", "sql", "frontend", "devops", "design", "testing", "writing"}

func GenerateRandomChineseName() string {
	surname := commonSurnames[rand.Intn(len(commonSurnames))]
	nameLength := rand.Intn(2) + 1
	name := ""

	for range nameLength {
		name += commonNameCharacters[rand.Intn(len(commonNameCharacters))]
	}
	return surname + name
}

var roles = []domain.Role{
	domain.RolePlanner,
	domain.RoleAdmin,
}

func GenerateRandomRole() domain.Role {
	return roles[rand.Intn(len(roles))]
}

var digits = "0123456789"

func GenerateUsernameFromChineseName(chineseName string) string {
	pinyinArray := pinyin.LazyConvert(chineseName, nil)
	username := ""

	for _, pinyin := range pinyinArray {
		length := rand.Intn(len(pinyin)) + 1
		username += pinyin[:length]
	}

	digitsLength := rand.Intn(3) + 1
	for range digitsLength {
		username += string(digits[rand.Intn(len(digits))])
	}

	return username
}

func GenerateRandomUser(password string, emailDomainName string) (*domain.User, error) {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}

	user := &domain.User{
		Username:     username,
		PasswordHash: string(passwordHash),
		FullName:     fullName,
		Email:        username + "@" + emailDomainName,
		Role:         GenerateRandomRole(),
	}

	return user, nil
}

var letters = []rune("abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789!@#$%^&*")

func GenerateRandomPassword(length int) string {
	randomPassword := make([]rune, length)
	for i := range randomPassword {
		randomPassword[i] = letters[rand.Intn(len(letters))]
	}
	return string(randomPassword)
}

var idLetters = []rune("abcdefghijklmnopqrstuvwxyz")

// GenerateRandomID 生成由小写字母加数字组成的 ID
func GenerateRandomID(letterLength int, digitLength int) string {
	randomID := make([]rune, letterLength+digitLength)
	for i := range randomID {
		if i < letterLength {
			randomID[i] = idLetters[rand.Intn(len(idLetters))]
		} else {
			randomID[i] = rune(digits[rand.Intn(len(digits))])
		}
	}
	return string(randomID)
}

// 使用 Fisher-Yates 洗牌算法来生成一个大小在 [lo, hi] 之间的随机子集
func GenerateRandomSubset[T any](arr []T, lo, hi int) []T {
	arrCopy := append([]T{}, arr...) // 复制数组，避免修改原数组

	for i := 0; i < len(arrCopy)-1; i++ {
		j := rand.Intn(len(arrCopy)-i) + i
		arrCopy[i], arrCopy[j] = arrCopy[j], arrCopy[i]
	}

	hi = Clamp(hi, 0, len(arrCopy))
	lo = Clamp(lo, 0, hi)
	l := lo + rand.Intn(hi-lo+1)
	return arrCopy[:l]
}

func Clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// GenerateRandomEmployee 生成一个随机员工，
// 规划范围内的每一天有 10% 的概率请假一整天，另外各挑 1~2 天作为不想上班和想上班的日子
func GenerateRandomEmployee(emailDomainName string, horizonDays int) *domain.Employee {
	fullName := GenerateRandomChineseName()
	username := GenerateUsernameFromChineseName(fullName)

	e := &domain.Employee{
		ID:          username,
		Name:        fullName,
		Email:       username + "@" + emailDomainName,
		Skills:      GenerateRandomSubset(Skills, 1, 3),
		Unavailable: make([]domain.Interval, 0),
	}

	days := make([]int, horizonDays)
	for day := range horizonDays {
		days[day] = day
		if rand.Intn(10) == 0 {
			e.Unavailable = append(e.Unavailable, domain.Interval{
				Start: day * domain.MinutesPerDay,
				End:   (day + 1) * domain.MinutesPerDay,
			})
		}
	}

	picked := GenerateRandomSubset(days, 0, 4)
	half := len(picked) / 2
	e.UndesiredDays = slices.Sorted(slices.Values(picked[:half]))
	e.DesiredDays = slices.Sorted(slices.Values(picked[half:]))

	return e
}

// GenerateRandomProject 生成一条任务链，每个任务依赖前一个任务
func GenerateRandomProject(projectID string, length int) []domain.Task {
	tasks := make([]domain.Task, length)
	for i := range tasks {
		tasks[i] = domain.Task{
			ID:             fmt.Sprintf("%s-%d", projectID, i+1),
			ProjectID:      projectID,
			Description:    fmt.Sprintf("%s 的第 %d 个任务", projectID, i+1),
			Sequence:       i,
			Duration:       (rand.Intn(8) + 1) * 30,
			RequiredSkills: GenerateRandomSubset(Skills, 1, 1),
			Predecessors:   []string{},
		}
		if i > 0 {
			tasks[i].Predecessors = []string{tasks[i-1].ID}
		}
	}
	return tasks
}
