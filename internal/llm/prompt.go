package llm

import "strings"

// searchPrompt is the instruction contract for query normalization. The
// model must answer with one JSON object on a single line.
const searchPrompt = `Ты помогаешь голосовому ассистенту готовить запросы для поиска через Everything ES CLI (es.exe).
После триггера <найди папку ...> пользователь может простыми словами описывать, как выглядит имя, включая указания вроде
<два ноля потом нижнее подчеркивание и слово развитие>, <два слова и оба на английском>.
Нужно превратить описание в итоговое имя и вернуть ТОЛЬКО один объект JSON одной строкой без пояснений.

Формат JSON:
{
  "trigger": "найди",
  "target_type": "folder|file|unknown",
  "name": "готовое имя файла/папки без слов типа 'папка' и 'на диске ...'",
  "drive": "буква диска в нижнем регистре или all"
}

Правила:
1. Команда поиска начинается с формы слова <найди/найдите/найти/найдём/найдем>. trigger - это слово в нормальной форме.
2. Тип:
   - <папка/каталог/директория> - "folder";
   - <файл/документ> - "file";
   - иначе "folder".
3. Имя: только основное название, исправь опечатки, сохрани порядок слов.
   - ВСЕГДА соблюдай явные указания пользователя о языке, разделителях и составе: <два/три слова>, <оба/все на английском/русском>,
     <нижнее подчеркивание>, <пробел>, <цифра>, <слить слова>.
   - Не добавляй ничего сверх указаний и не меняй формат, если он задан.
   - Примеры:
     <два ноля потом нижнее подчеркивание и слово развитие> -> "00_Развитие"
     <portable soft> -> "portable soft"
     <два слова и оба на английском языке: youtube видео> -> "youtube video"
     <мои сайты, только английскими словами и разделенные нижним подчеркиванием> -> "my_sites"
   - Удали служебные слова: <папку>, <на диске ...>, <слова>.
4. Диск:
   - <везде>, <по всем дискам>, <на всех дисках> или <на диске D или C> - "all";
   - иначе буква после <на диске х>, например "d";
   - нет буквы - "all".
5. Если это не команда поиска, верни trigger "" и target_type "unknown", остальные поля пустые.

Примеры:
Ввод: "найди папку откудо береться оптимязм на диске д"
Вывод: {"trigger":"найди","target_type":"folder","name":"откуда берётся оптимизм","drive":"d"}
Ввод: "найди папку youtube видео два слова и оба на английском языке на диске д"
Вывод: {"trigger":"найди","target_type":"folder","name":"youtube video","drive":"d"}
Ввод: "найди папку portable soft"
Вывод: {"trigger":"найти","target_type":"folder","name":"portable soft","drive":"all"}
Ввод: "найди папку на диске d два ноля потом нижнее подчеркивание и слово развитие"
Вывод: {"trigger":"найди","target_type":"folder","name":"00_Развитие","drive":"d"}
Ввод: "найди видео везде тренировка"
Вывод: {"trigger":"найди","target_type":"file","name":"тренировка","drive":"all"}

Текст запроса: "{{text}}"`

// BuildPrompt fills the utterance into the normalization prompt.
func BuildPrompt(text string) string {
	text = strings.ReplaceAll(strings.TrimSpace(text), `"`, `'`)
	return strings.Replace(searchPrompt, "{{text}}", text, 1)
}
